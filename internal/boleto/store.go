package boleto

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName    = "boletos"
	collectionKey = "my_boletos_v1"
)

// Filter selects a subset of the collection by payment status
type Filter string

const (
	FilterAll     Filter = "all"
	FilterPending Filter = "pending"
	FilterPaid    Filter = "paid"
)

// Store defines the interface for the authoritative boleto collection
type Store interface {
	// Add prepends a new boleto (newest-first ordering) and persists
	Add(b *Boleto) error

	// Get retrieves a boleto by ID
	Get(id string) (*Boleto, bool)

	// List returns the boletos matching the filter, preserving order
	List(filter Filter) []*Boleto

	// ToggleStatus flips a boleto between pending and paid and persists.
	// Returns nil when the ID is absent (no-op).
	ToggleStatus(id string) (*Boleto, error)

	// Delete removes a boleto and persists. Reports whether it existed.
	Delete(id string) (bool, error)

	// TotalPending returns the sum of value over pending boletos
	TotalPending() float64

	// Close closes the underlying database
	Close() error
}

// BoltStore implements Store with the whole collection held in memory and
// mirrored to a single key in bbolt as a JSON array after every mutation.
// A personal bill list is small, so linear scans and full rewrites are fine.
// Records cross the API boundary by value in both directions: handlers run
// on concurrent goroutines, and a pointer into the live collection would let
// a JSON encode race a mutation happening under the mutex.
type BoltStore struct {
	mu      sync.Mutex
	db      *bbolt.DB
	boletos []*Boleto
}

// NewBoltStore opens the database and loads the collection. A stored blob
// that fails to deserialize is logged and replaced by an empty collection.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	s := &BoltStore{db: db, boletos: make([]*Boleto, 0)}
	s.load()
	return s, nil
}

// load reads the collection blob. Never fails: a missing or corrupt blob
// yields an empty collection.
func (s *BoltStore) load() {
	var data []byte
	s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(collectionKey)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return
	}

	var boletos []*Boleto
	if err := json.Unmarshal(data, &boletos); err != nil {
		slog.Error("Failed to load stored boletos, starting empty", "error", err)
		return
	}
	s.boletos = boletos
}

// persistLocked writes the whole collection back under the fixed key.
// Callers must hold s.mu.
func (s *BoltStore) persistLocked() error {
	data, err := json.Marshal(s.boletos)
	if err != nil {
		return fmt.Errorf("marshaling boletos: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(collectionKey), data)
	})
	if err != nil {
		return fmt.Errorf("persisting boletos: %w", err)
	}
	return nil
}

// Add prepends a new boleto and persists the collection
func (s *BoltStore) Add(b *Boleto) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *b
	s.boletos = append([]*Boleto{&cp}, s.boletos...)
	if err := s.persistLocked(); err != nil {
		s.boletos = s.boletos[1:]
		return err
	}
	return nil
}

// Get retrieves a boleto by ID
func (s *BoltStore) Get(id string) (*Boleto, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.boletos {
		if b.ID == id {
			cp := *b
			return &cp, true
		}
	}
	return nil, false
}

// List returns the boletos matching the filter, newest first
func (s *BoltStore) List(filter Filter) []*Boleto {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Boleto, 0, len(s.boletos))
	for _, b := range s.boletos {
		if filter == FilterAll || filter == "" || Filter(b.Status) == filter {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

// ToggleStatus flips the matching boleto between pending and paid
func (s *BoltStore) ToggleStatus(id string) (*Boleto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.boletos {
		if b.ID != id {
			continue
		}
		prev := b.Status
		if b.Status == StatusPaid {
			b.Status = StatusPending
		} else {
			b.Status = StatusPaid
		}
		if err := s.persistLocked(); err != nil {
			b.Status = prev
			return nil, err
		}
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

// Delete removes the matching boleto, no-op when absent
func (s *BoltStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.boletos {
		if b.ID != id {
			continue
		}
		removed := b
		s.boletos = append(s.boletos[:i], s.boletos[i+1:]...)
		if err := s.persistLocked(); err != nil {
			s.boletos = append(s.boletos[:i], append([]*Boleto{removed}, s.boletos[i:]...)...)
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// TotalPending returns the sum of value over pending boletos
func (s *BoltStore) TotalPending() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, b := range s.boletos {
		if b.Status == StatusPending {
			total += b.Value
		}
	}
	return total
}

// Close closes the database connection
func (s *BoltStore) Close() error {
	return s.db.Close()
}
