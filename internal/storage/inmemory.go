package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/easeaico/senior-acido/internal/types"
)

// InMemory is a process-local store used when no database is configured.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[string]types.Profile
	history  []types.HistoryRecord
	nextID   int
	now      func() time.Time
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		profiles: make(map[string]types.Profile),
		now:      time.Now,
	}
}

func (m *InMemory) GetProfile(ctx context.Context, userID string) (types.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return types.Profile{}, types.ErrNotFound
	}
	return profile, nil
}

func (m *InMemory) UpdateProfileField(ctx context.Context, userID string, field types.ProfileField, value string) error {
	if !validField(field) {
		return fmt.Errorf("unknown profile field %q", field)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	profile := m.profiles[userID]
	profile.UserID = userID
	switch field {
	case types.FieldEducation:
		profile.EducationSummary = value
	case types.FieldInterests:
		profile.InterestsSummary = value
	case types.FieldPrivacy:
		profile.PrivacyNotes = value
	}
	profile.UpdatedAt = m.now().UTC()
	m.profiles[userID] = profile
	return nil
}

func (m *InMemory) AppendHistory(ctx context.Context, record types.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	record.ID = m.nextID
	if record.Category == "" {
		record.Category = types.CategoryCasual
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = m.now().UTC()
	}
	if record.Embedding != nil {
		record.Embedding = append([]float32(nil), record.Embedding...)
	}
	m.history = append(m.history, record)
	return nil
}

// RecentHistory returns the newest records first.
func (m *InMemory) RecentHistory(ctx context.Context, userID string, limit int) ([]types.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []types.HistoryRecord
	for i := len(m.history) - 1; i >= 0 && len(results) < limit; i-- {
		record := m.history[i]
		if record.UserID != userID {
			continue
		}
		record.Embedding = nil
		results = append(results, record)
	}
	return results, nil
}

func (m *InMemory) SearchSimilar(ctx context.Context, userID string, embedding []float32, threshold float64, limit int) ([]types.SimilarRecord, error) {
	if len(embedding) == 0 || limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []types.SimilarRecord
	for _, record := range m.history {
		if record.UserID != userID || len(record.Embedding) != len(embedding) {
			continue
		}
		similarity := cosine(record.Embedding, embedding)
		if similarity <= threshold {
			continue
		}
		results = append(results, types.SimilarRecord{
			Question:   record.Question,
			Answer:     record.Answer,
			Category:   record.Category,
			Similarity: similarity,
			CreatedAt:  record.CreatedAt,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *InMemory) DeleteHistoryByCategory(ctx context.Context, userID, category string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.history[:0]
	var deleted int64
	for _, record := range m.history {
		if record.UserID == userID && record.Category == category {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	m.history = kept
	return deleted, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
