package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/easeaico/senior-acido/internal/types"
)

// ProfileRepo persists the single mentee profile.
type ProfileRepo interface {
	GetProfile(ctx context.Context, userID string) (types.Profile, error)
	UpdateProfileField(ctx context.Context, userID string, field types.ProfileField, value string) error
}

// HistoryRepo persists question/answer rows.
type HistoryRepo interface {
	AppendHistory(ctx context.Context, record types.HistoryRecord) error
	// RecentHistory returns the newest rows first.
	RecentHistory(ctx context.Context, userID string, limit int) ([]types.HistoryRecord, error)
	SearchSimilar(ctx context.Context, userID string, embedding []float32, threshold float64, limit int) ([]types.SimilarRecord, error)
	DeleteHistoryByCategory(ctx context.Context, userID, category string) (int64, error)
}

// Options tune retrieval.
type Options struct {
	HistoryLimit        int
	TopK                int
	SimilarityThreshold float64
	// CallTimeout bounds every store or embedding call.
	CallTimeout time.Duration
}

// Recall is everything remembered about the mentee for one turn.
type Recall struct {
	Profile types.Profile
	// History is chronological, oldest first.
	History []types.HistoryRecord
	Similar []types.SimilarRecord
}

// Service reads and writes long-term memory. Every failure degrades to an empty value.
type Service struct {
	embedder Embedder
	profiles ProfileRepo
	history  HistoryRepo
	opts     Options
}

// NewService returns a memory service. embedder may be nil to disable similarity search.
func NewService(embedder Embedder, profiles ProfileRepo, history HistoryRepo, opts Options) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	return &Service{
		embedder: embedder,
		profiles: profiles,
		history:  history,
		opts:     opts,
	}
}

// Recall loads profile, recent history and related older turns for query.
func (s *Service) Recall(ctx context.Context, userID, query string) Recall {
	var out Recall

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		slog.Warn("failed to load profile", "user_id", userID, "error", err.Error())
	}
	out.Profile = profile

	recent, err := s.recent(ctx, userID)
	if err != nil {
		slog.Warn("failed to load recent history", "user_id", userID, "error", err.Error())
	}
	out.History = recent

	if s.embedder != nil && s.opts.TopK > 0 && strings.TrimSpace(query) != "" {
		similar, err := s.similar(ctx, userID, query)
		if err != nil {
			slog.Warn("failed to search similar history", "user_id", userID, "error", err.Error())
		}
		out.Similar = excludeRecent(similar, recent)
	}
	return out
}

func (s *Service) loadProfile(ctx context.Context, userID string) (types.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		return types.Profile{UserID: userID}, nil
	}
	if err != nil {
		return types.Profile{UserID: userID}, types.TransientError("profile.get", err)
	}
	return profile, nil
}

func (s *Service) recent(ctx context.Context, userID string) ([]types.HistoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	records, err := s.history.RecentHistory(ctx, userID, s.opts.HistoryLimit)
	if err != nil {
		return nil, types.TransientError("history.recent", err)
	}

	// Oldest -> newest
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (s *Service) similar(ctx context.Context, userID, query string) ([]types.SimilarRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, types.TransientError("embedding.query", err)
	}
	if len(vec) == 0 {
		return nil, nil
	}
	records, err := s.history.SearchSimilar(ctx, userID, vec, s.opts.SimilarityThreshold, s.opts.TopK)
	if err != nil {
		return nil, types.TransientError("history.similar", err)
	}
	return records, nil
}

func excludeRecent(similar []types.SimilarRecord, recent []types.HistoryRecord) []types.SimilarRecord {
	if len(similar) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(recent))
	for _, r := range recent {
		seen[r.Question] = struct{}{}
	}
	out := similar[:0:0]
	for _, r := range similar {
		if _, ok := seen[r.Question]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Learn applies an important decision to the profile. It reports whether a field changed.
func (s *Service) Learn(ctx context.Context, userID string, decision types.ClassifierDecision) (bool, error) {
	if !decision.IsImportant {
		return false, nil
	}
	fact := strings.TrimSpace(decision.Fact())
	field, ok := decision.ProfileField()
	if fact == "" || !ok {
		return false, nil
	}

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	merged, changed := MergeFact(profile.Value(field), fact)
	if !changed {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	if err := s.profiles.UpdateProfileField(ctx, userID, field, merged); err != nil {
		return false, types.TransientError("profile.update", err)
	}
	slog.Info("profile updated", "user_id", userID, "field", string(field))
	return true, nil
}

// MergeFact appends fact to existing unless existing already contains it, ignoring case.
func MergeFact(existing, fact string) (string, bool) {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return existing, false
	}
	if strings.Contains(strings.ToLower(existing), strings.ToLower(fact)) {
		return existing, false
	}
	if strings.TrimSpace(existing) == "" {
		return fact, true
	}
	return existing + "; " + fact, true
}

// Remember appends one turn to history, with an embedding when one can be computed.
func (s *Service) Remember(ctx context.Context, record types.HistoryRecord) error {
	if s.embedder != nil && len(record.Embedding) == 0 {
		embedCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		vec, err := s.embedder.EmbedDocument(embedCtx, record.Question+"\n"+record.Answer)
		cancel()
		if err != nil {
			slog.Warn("failed to embed history record, storing without vector", "error", err.Error())
		} else {
			record.Embedding = vec
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	if err := s.history.AppendHistory(ctx, record); err != nil {
		return types.TransientError("history.append", err)
	}
	return nil
}

// ForgetCasual deletes every casual history row of userID.
func (s *Service) ForgetCasual(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	n, err := s.history.DeleteHistoryByCategory(ctx, userID, types.CategoryCasual)
	if err != nil {
		return 0, fmt.Errorf("failed to forget casual history: %w", err)
	}
	slog.Info("casual history forgotten", "user_id", userID, "deleted", n)
	return n, nil
}
