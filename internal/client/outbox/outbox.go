// Package outbox keeps remote writes that could not be delivered. The queue is
// stored encrypted in the vault under StorageKey and replayed, in order, once
// the remote store is reachable again.
//
// Ops for the same entity and key collapse: the newest op replaces an older
// queued one. A delete following an insert that was never sent removes both;
// once an insert has been attempted the remote row may exist, so the delete
// is kept. Replay stops at the first failure of an entity so later ops for it
// never overtake an earlier one.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/careerkeeper/internal/logging"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
	"github.com/google/uuid"
)

const StorageKey = "sync:outbox"

type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindUpsert Kind = "upsert"
)

var ErrNoHandler = errors.New("no replay handler registered")

// Op is one pending remote write. Payload holds the JSON of the record (or
// nothing for deletes). Sent marks ops whose delivery was attempted before
// they were queued.
type Op struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	Kind      Kind            `json:"op"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt int64           `json:"createdAt"`
	Attempts  int             `json:"attempts"`
	Sent      bool            `json:"sent,omitempty"`
	LastError string          `json:"lastError,omitempty"`
}

// NewOp builds an op for entity/key, encoding payload when non-nil.
func NewOp(entity string, kind Kind, key string, payload any) (Op, error) {
	op := Op{Entity: entity, Kind: kind, Key: key}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Op{}, fmt.Errorf("failed to encode %s payload: %w", entity, err)
		}
		op.Payload = b
	}
	return op, nil
}

// Store is the part of the vault the outbox persists through.
type Store interface {
	GetSecure(ctx context.Context, key string, out any) (bool, error)
	SetSecure(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Lock(key string) func()
}

// Handler delivers one op for userID.
type Handler func(ctx context.Context, userID string, op Op) error

// ReplayResult summarizes one Replay call.
type ReplayResult struct {
	Sent    int
	Failed  int
	Pending int
}

type Outbox struct {
	store Store
	log   logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

func New(store Store, log logging.Logger) *Outbox {
	return &Outbox{
		store:    store,
		log:      log,
		handlers: make(map[string]Handler),
	}
}

// Register installs the replay handler for entity, replacing any previous one.
func (o *Outbox) Register(entity string, h Handler) {
	o.mu.Lock()
	o.handlers[entity] = h
	o.mu.Unlock()
}

func (o *Outbox) handler(entity string) (Handler, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	h, ok := o.handlers[entity]
	return h, ok
}

func (o *Outbox) load(ctx context.Context) ([]Op, error) {
	var ops []Op
	if _, err := o.store.GetSecure(ctx, StorageKey, &ops); err != nil {
		return nil, fmt.Errorf("failed to read outbox: %w", err)
	}
	return ops, nil
}

// save writes ops back; a drained queue removes the storage key.
func (o *Outbox) save(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		if err := o.store.Delete(ctx, StorageKey); err != nil {
			return fmt.Errorf("failed to clear outbox: %w", err)
		}
		return nil
	}
	if err := o.store.SetSecure(ctx, StorageKey, ops); err != nil {
		return fmt.Errorf("failed to write outbox: %w", err)
	}
	return nil
}

// delivered reports whether the op may have reached the remote store.
func (op Op) delivered() bool {
	return op.Sent || op.Attempts > 0
}

// collapse applies op to the queue. queued is false when op cancelled an
// earlier op and nothing is left to send for its key.
func collapse(ops []Op, op Op) (result []Op, queued bool) {
	for i, prev := range ops {
		if prev.Entity != op.Entity || prev.Key != op.Key {
			continue
		}
		rest := append(ops[:i:i], ops[i+1:]...)
		if op.Kind == KindDelete && prev.Kind == KindInsert && !prev.delivered() {
			return rest, false
		}
		if prev.Kind == KindInsert && op.Kind == KindUpdate {
			op.Kind = KindInsert
		}
		if prev.delivered() {
			op.Sent = true
		}
		return append(rest, op), true
	}
	return append(ops, op), true
}

// Enqueue stores op, assigning its id and creation time. It reports whether
// an op for the key is pending afterwards.
func (o *Outbox) Enqueue(ctx context.Context, op Op) (bool, error) {
	unlock := o.store.Lock(StorageKey)
	defer unlock()

	ops, err := o.load(ctx)
	if err != nil {
		return false, err
	}

	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.CreatedAt == 0 {
		op.CreatedAt = timex.NowMillis()
	}

	ops, queued := collapse(ops, op)
	if err := o.save(ctx, ops); err != nil {
		return false, err
	}
	return queued, nil
}

// Discard drops queued ops for entity/key, used after a direct remote write
// has superseded them.
func (o *Outbox) Discard(ctx context.Context, entity, key string) error {
	unlock := o.store.Lock(StorageKey)
	defer unlock()

	ops, err := o.load(ctx)
	if err != nil {
		return err
	}

	kept := ops[:0]
	for _, op := range ops {
		if op.Entity == entity && op.Key == key {
			continue
		}
		kept = append(kept, op)
	}
	if len(kept) == len(ops) {
		return nil
	}
	return o.save(ctx, kept)
}

// Pending returns the queued ops in replay order.
func (o *Outbox) Pending(ctx context.Context) ([]Op, error) {
	unlock := o.store.Lock(StorageKey)
	defer unlock()
	return o.load(ctx)
}

// Replay delivers queued ops through the registered handlers. Delivered ops
// are removed; a failed op stays with its attempt count and error, and the
// remaining ops of that entity are kept untouched.
func (o *Outbox) Replay(ctx context.Context, userID string) (ReplayResult, error) {
	unlock := o.store.Lock(StorageKey)
	defer unlock()

	ops, err := o.load(ctx)
	if err != nil {
		return ReplayResult{}, err
	}
	if len(ops) == 0 {
		return ReplayResult{}, nil
	}

	var res ReplayResult
	blocked := make(map[string]bool)
	remaining := make([]Op, 0, len(ops))

	for _, op := range ops {
		if blocked[op.Entity] || ctx.Err() != nil {
			remaining = append(remaining, op)
			continue
		}

		err := ErrNoHandler
		if h, ok := o.handler(op.Entity); ok {
			err = h(ctx, userID, op)
		}
		if err != nil {
			op.Attempts++
			op.LastError = err.Error()
			blocked[op.Entity] = true
			remaining = append(remaining, op)
			res.Failed++
			o.log.Warn(ctx, "outbox replay failed", "entity", op.Entity, "op", op.Kind, "key", op.Key, "attempts", op.Attempts, "err", err)
			continue
		}
		res.Sent++
	}

	res.Pending = len(remaining)
	if err := o.save(ctx, remaining); err != nil {
		return res, err
	}

	o.log.Info(ctx, "outbox replayed", "sent", res.Sent, "failed", res.Failed, "pending", res.Pending)
	return res, nil
}
