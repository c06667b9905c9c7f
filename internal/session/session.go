// Package session keeps the state of invoice edit screens between requests.
package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diewo77/invoicer-web/internal/invoicelines"
)

var ErrNotFound = errors.New("edit session not found")

// EditSession is the working copy of one invoice being edited or created.
// InvoiceID is 0 when the invoice does not exist yet.
type EditSession struct {
	ID            string
	InvoiceID     int64
	Header        invoicelines.Header
	CustomerLabel string
	Persisted     []invoicelines.PersistedLine
	Added         []invoicelines.NewLine
	UpdatedAt     time.Time
}

// IsNew reports whether saving the session creates an invoice.
func (s *EditSession) IsNew() bool { return s.InvoiceID == 0 }

// ToggleRemoval flips the removal flag of a persisted line.
func (s *EditSession) ToggleRemoval(index int) error {
	lines, err := invoicelines.ToggleRemoval(s.Persisted, index)
	if err != nil {
		return err
	}
	s.Persisted = lines
	return nil
}

// AddLine appends a new line.
func (s *EditSession) AddLine(l invoicelines.NewLine) error {
	lines, err := invoicelines.AddLine(s.Added, l)
	if err != nil {
		return err
	}
	s.Added = lines
	return nil
}

// RemoveNewLine drops a new line.
func (s *EditSession) RemoveNewLine(index int) error {
	lines, err := invoicelines.RemoveNewLine(s.Added, index)
	if err != nil {
		return err
	}
	s.Added = lines
	return nil
}

// Submission validates the session and builds the attributes to send.
func (s *EditSession) Submission() (invoicelines.InvoiceAttributes, error) {
	if s.IsNew() {
		return invoicelines.NewSubmission(s.Header, s.Added)
	}
	return invoicelines.Submission(s.Header, s.Persisted, s.Added)
}

func (s *EditSession) clone() *EditSession {
	c := *s
	c.Persisted = slices.Clone(s.Persisted)
	c.Added = slices.Clone(s.Added)
	return &c
}

// Store holds edit sessions.
type Store interface {
	Create(s *EditSession) string
	Get(id string) (*EditSession, error)
	Update(id string, fn func(*EditSession) error) (*EditSession, error)
	Delete(id string)
}

// MemoryStore is a process-local Store. Get returns copies, so callers only change
// a session through Update.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*EditSession
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]*EditSession{}, now: time.Now}
}

// Create stores s under a fresh id and returns it.
func (m *MemoryStore) Create(s *EditSession) string {
	c := s.clone()
	c.ID = uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	c.UpdatedAt = m.now()
	m.sessions[c.ID] = c
	return c.ID
}

func (m *MemoryStore) Get(id string) (*EditSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

// Update applies fn to a copy of the session and keeps the result only when fn succeeds.
func (m *MemoryStore) Update(id string, fn func(*EditSession) error) (*EditSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := s.clone()
	if err := fn(c); err != nil {
		return s.clone(), err
	}
	c.ID = id
	c.UpdatedAt = m.now()
	m.sessions[id] = c
	return c.clone(), nil
}

func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// SweepIdle removes sessions not updated within maxAge and returns how many were dropped.
func (m *MemoryStore) SweepIdle(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
