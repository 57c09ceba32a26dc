// Package vault is the encrypted key-value façade every storage service reads
// and writes through.
//
// A Vault owns the derived key and a small state machine:
//
//	Uninitialized -> Initializing -> Ready
//
// EnsureInit is single-flight: concurrent callers share one key derivation.
// A failed attempt returns the vault to Uninitialized so it can be retried.
// The salt is created with a create-if-absent write so that two processes
// racing on a fresh database converge to the same value.
//
// Values are JSON-encoded and stored as EncryptedRecords (see cryptox).
// Entries written by older clients as plain JSON are re-encrypted the first
// time they are read.
package vault

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/careerkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/careerkeeper/internal/common"
	"github.com/dmitrijs2005/careerkeeper/internal/cryptox"
	"github.com/dmitrijs2005/careerkeeper/internal/logging"
	"github.com/dmitrijs2005/careerkeeper/internal/syncx"
	"golang.org/x/sync/singleflight"
)

// Reserved storage keys. They hold unencrypted key material metadata and
// cannot be used through GetSecure/SetSecure.
const (
	SaltKey     = "vault:salt"
	VerifierKey = "vault:verifier"
)

var (
	ErrNotInitialized = errors.New("vault not initialized")
	ErrWrongSeed      = errors.New("seed does not match the vault")
	ErrReservedKey    = errors.New("reserved vault key")
	ErrCorruptSalt    = errors.New("vault salt is corrupt")
)

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// deriveKey is a seam for tests counting derivations.
var deriveKey = cryptox.DeriveKey

type Vault struct {
	repo kv.Repository
	seed []byte
	log  logging.Logger

	mu    sync.RWMutex
	state State
	key   []byte

	init  singleflight.Group
	locks syncx.KeyedMutex
}

// New creates an uninitialized vault over repo. seed is the per-device secret.
func New(repo kv.Repository, seed []byte, log logging.Logger) *Vault {
	return &Vault{
		repo: repo,
		seed: bytes.Clone(seed),
		log:  log,
	}
}

func (v *Vault) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

func (v *Vault) setState(s State) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}

// EnsureInit loads or creates the salt and derives the key. Calls after the
// first success return immediately.
func (v *Vault) EnsureInit(ctx context.Context) error {
	if v.State() == StateReady {
		return nil
	}

	_, err, _ := v.init.Do("init", func() (any, error) {
		if v.State() == StateReady {
			return nil, nil
		}
		v.setState(StateInitializing)

		key, err := v.loadKey(ctx)
		if err != nil {
			v.setState(StateUninitialized)
			return nil, err
		}

		v.mu.Lock()
		v.key = key
		v.state = StateReady
		v.mu.Unlock()

		v.log.Debug(ctx, "vault ready")
		return nil, nil
	})
	return err
}

func (v *Vault) loadKey(ctx context.Context) ([]byte, error) {
	candidate := base64.StdEncoding.EncodeToString(common.GenerateRandByteArray(cryptox.SaltSize))

	stored, err := v.repo.SetIfAbsent(ctx, SaltKey, []byte(candidate))
	if err != nil {
		return nil, fmt.Errorf("failed to load vault salt: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(string(stored))
	if err != nil || len(salt) != cryptox.SaltSize {
		return nil, ErrCorruptSalt
	}

	key := deriveKey(v.seed, salt)

	verifier := base64.StdEncoding.EncodeToString(cryptox.MakeVerifier(key))
	storedVerifier, err := v.repo.SetIfAbsent(ctx, VerifierKey, []byte(verifier))
	if err != nil {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("failed to load vault verifier: %w", err)
	}
	if string(storedVerifier) != verifier {
		common.WipeByteArray(key)
		return nil, ErrWrongSeed
	}

	return key, nil
}

// Wipe zeroes the key and returns the vault to Uninitialized.
func (v *Vault) Wipe() {
	v.mu.Lock()
	defer v.mu.Unlock()
	common.WipeByteArray(v.key)
	v.key = nil
	v.state = StateUninitialized
}

// Reset erases every stored entry, key material included, and returns the
// vault to Uninitialized. The next access creates a fresh salt.
func (v *Vault) Reset(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to reset vault: %w", err)
	}
	common.WipeByteArray(v.key)
	v.key = nil
	v.state = StateUninitialized
	return nil
}

// withKey runs fn with a private copy of the key, zeroed when fn returns, so
// a concurrent Wipe cannot change the key under an encryption in progress.
func (v *Vault) withKey(fn func(key []byte) error) error {
	v.mu.RLock()
	if v.state != StateReady {
		v.mu.RUnlock()
		return ErrNotInitialized
	}
	key := bytes.Clone(v.key)
	v.mu.RUnlock()

	defer common.WipeByteArray(key)
	return fn(key)
}

func isReserved(key string) bool {
	return key == SaltKey || key == VerifierKey
}

func looksLikeJSON(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// GetSecure decodes the value stored under key into out. It reports false
// when the key is absent or its record cannot be decrypted or parsed; errors
// are returned only for storage or initialization failures.
func (v *Vault) GetSecure(ctx context.Context, key string, out any) (bool, error) {
	if isReserved(key) {
		return false, ErrReservedKey
	}
	if err := v.EnsureInit(ctx); err != nil {
		return false, err
	}

	raw, err := v.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}

	if looksLikeJSON(raw) {
		return v.migrateLegacy(ctx, key, raw, out)
	}

	err = v.withKey(func(k []byte) error {
		return cryptox.DecryptEntry(string(raw), k, out)
	})
	if errors.Is(err, ErrNotInitialized) {
		return false, err
	}
	if err != nil {
		v.log.Warn(ctx, "vault entry unreadable", "key", key, "err", err)
		return false, nil
	}
	return true, nil
}

func (v *Vault) migrateLegacy(ctx context.Context, key string, raw []byte, out any) (bool, error) {
	if err := json.Unmarshal(raw, out); err != nil {
		v.log.Warn(ctx, "legacy vault entry is not valid json", "key", key)
		return false, nil
	}
	if err := v.SetSecure(ctx, key, out); err != nil {
		v.log.Warn(ctx, "failed to encrypt legacy vault entry", "key", key, "err", err)
		return true, nil
	}
	v.log.Info(ctx, "migrated legacy vault entry", "key", key)
	return true, nil
}

// SetSecure JSON-encodes value, encrypts it and overwrites key.
func (v *Vault) SetSecure(ctx context.Context, key string, value any) error {
	if isReserved(key) {
		return ErrReservedKey
	}
	if err := v.EnsureInit(ctx); err != nil {
		return err
	}

	var record string
	err := v.withKey(func(k []byte) error {
		var err error
		record, err = cryptox.EncryptEntry(value, k)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return v.repo.Set(ctx, key, []byte(record))
}

// Delete removes key from the backend.
func (v *Vault) Delete(ctx context.Context, key string) error {
	if isReserved(key) {
		return ErrReservedKey
	}
	return v.repo.Delete(ctx, key)
}

// Lock serializes read-modify-write cycles on one storage key. Callers must
// invoke the returned function exactly once; extra calls are ignored.
func (v *Vault) Lock(key string) func() {
	return v.locks.Lock(key)
}
