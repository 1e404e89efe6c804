// Package cache memoises score breakdowns of candidate/vacancy pairs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/spigell/talent-matcher/internal/domain"
)

// Store is a score breakdown cache. A miss is reported with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (domain.ScoreBreakdown, bool, error)
	Set(ctx context.Context, key string, b domain.ScoreBreakdown) error
}

// Key identifies a pair by ids and by a digest of both records, so edited records never hit stale entries.
func Key(c *domain.Candidate, v *domain.Vacancy) string {
	h := sha256.New()
	// json.Marshal of these plain structs cannot fail.
	cb, _ := json.Marshal(c)
	vb, _ := json.Marshal(v)
	h.Write(cb)
	h.Write([]byte{0})
	h.Write(vb)
	sum := h.Sum(nil)

	var candidateID, vacancyID string
	if c != nil {
		candidateID = c.ID
	}
	if v != nil {
		vacancyID = v.ID
	}
	return candidateID + ":" + vacancyID + ":" + hex.EncodeToString(sum[:16])
}

type entry struct {
	breakdown domain.ScoreBreakdown
	expires   time.Time
}

// Memory is an in-process Store. A zero TTL keeps entries forever.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (m *Memory) Get(_ context.Context, key string) (domain.ScoreBreakdown, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return domain.ScoreBreakdown{}, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return domain.ScoreBreakdown{}, false, nil
	}
	return e.breakdown, true, nil
}

func (m *Memory) Set(_ context.Context, key string, b domain.ScoreBreakdown) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{breakdown: b}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[key] = e
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
