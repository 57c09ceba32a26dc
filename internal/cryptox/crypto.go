// Package cryptox holds the cryptographic primitives behind the vault:
// PBKDF2 key derivation and the EncryptedRecord codec
// ("base64(iv):base64(ciphertext)", AES-256-GCM).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the length of the per-device salt.
	SaltSize = 16
	// NonceSize is the AES-GCM IV length used for every record.
	NonceSize = 12
	// KeySize selects AES-256.
	KeySize = 32
	// Iterations is the PBKDF2 work factor.
	Iterations = 100_000

	recordSeparator = ":"
)

var (
	// ErrMalformedRecord is returned when a record is not two base64 parts
	// separated by ':' or the IV has the wrong length.
	ErrMalformedRecord = errors.New("malformed encrypted record")

	// ErrDecryptFailed is returned when the authentication tag does not verify
	// (tampered data or wrong key).
	ErrDecryptFailed = errors.New("decryption failed")
)

// DeriveKey derives a 256-bit AES key from seed and salt with
// PBKDF2-HMAC-SHA256.
func DeriveKey(seed []byte, salt []byte) []byte {
	return pbkdf2.Key(seed, salt, Iterations, KeySize, sha256.New)
}

// MakeVerifier returns a digest of key that can be stored next to the data
// to detect a wrong seed without attempting a decryption.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptRecord seals plaintext under key with a fresh random IV and returns
// the transport-safe "base64(iv):base64(ciphertext)" form.
func EncryptRecord(plaintext, key []byte) (string, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(nonce) + recordSeparator +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptRecord reverses EncryptRecord. It never returns partially decrypted
// data: any failure yields a nil slice and ErrMalformedRecord or
// ErrDecryptFailed.
func DecryptRecord(record string, key []byte) ([]byte, error) {
	parts := strings.Split(record, recordSeparator)
	if len(parts) != 2 {
		return nil, ErrMalformedRecord
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != NonceSize {
		return nil, ErrMalformedRecord
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrMalformedRecord
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

// EncryptEntry serializes entry to JSON and encrypts it with EncryptRecord.
//
// Example:
//
//	key := cryptox.DeriveKey(seed, salt)
//	record, err := cryptox.EncryptEntry(job, key)
//	if err != nil {
//	    return err
//	}
func EncryptEntry(entry any, key []byte) (string, error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}
	return EncryptRecord(plaintext, key)
}

// DecryptEntry decrypts record and unmarshals the JSON payload into v.
func DecryptEntry(record string, key []byte, v any) error {
	plaintext, err := DecryptRecord(record, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}
