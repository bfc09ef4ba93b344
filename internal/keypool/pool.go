package keypool

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty indicates the pool holds no usable keys.
var ErrEmpty = errors.New("keypool: no API keys available")

// Store abstracts persistence for the key list.
type Store interface {
	Load() ([]string, error)
	Remove(key string) error
}

// Pool is an ordered collection of API keys with soft rotation and permanent
// eviction. It is not safe for concurrent use; the pipeline worker is its
// only mutator.
type Pool struct {
	keys  []string
	store Store
}

// New builds a pool over the given store and loads the initial key list.
func New(store Store) (*Pool, error) {
	pool := &Pool{store: store}
	if err := pool.Reload(); err != nil {
		return nil, err
	}
	return pool, nil
}

// Reload re-reads the key list from the store.
func (p *Pool) Reload() error {
	if p.store == nil {
		return errors.New("keypool: no backing store")
	}
	keys, err := p.store.Load()
	if err != nil {
		return err
	}
	p.keys = keys
	return nil
}

// Keys returns a snapshot of the current pool order.
func (p *Pool) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len reports the number of keys in the pool.
func (p *Pool) Len() int {
	return len(p.keys)
}

// Contains reports whether the pool still holds the given key.
func (p *Pool) Contains(key string) bool {
	for _, candidate := range p.keys {
		if candidate == key {
			return true
		}
	}
	return false
}

// RotateToTail moves a key to the end of the pool so load spreads across the
// set over a run. A key no longer present is ignored.
func (p *Pool) RotateToTail(key string) {
	for i, candidate := range p.keys {
		if candidate == key {
			p.keys = append(append(p.keys[:i:i], p.keys[i+1:]...), key)
			return
		}
	}
}

// Evict permanently removes a key from the pool and its backing store.
func (p *Pool) Evict(key string) error {
	for i, candidate := range p.keys {
		if candidate == key {
			p.keys = append(p.keys[:i:i], p.keys[i+1:]...)
			break
		}
	}
	if p.store == nil {
		return nil
	}
	if err := p.store.Remove(key); err != nil {
		return fmt.Errorf("evict key %s: %w", Redact(key), err)
	}
	return nil
}

// Redact shortens a key to its first four characters for logging.
func Redact(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 4 {
		return key + "***"
	}
	return key[:4] + "***"
}
