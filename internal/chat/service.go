// Package chat runs one mentor turn from user input to rendered reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/easeaico/senior-acido/internal/agent"
	"github.com/easeaico/senior-acido/internal/ingest"
	"github.com/easeaico/senior-acido/internal/memory"
	"github.com/easeaico/senior-acido/internal/observability"
	"github.com/easeaico/senior-acido/internal/privacy"
	"github.com/easeaico/senior-acido/internal/prompt"
	"github.com/easeaico/senior-acido/internal/router"
	"github.com/easeaico/senior-acido/internal/session"
	"github.com/easeaico/senior-acido/internal/types"
)

// ErrEmptyInput is returned for a turn with neither text nor attachment.
var ErrEmptyInput = errors.New("mensagem vazia")

// Classifier reports whether an utterance carries a durable fact.
type Classifier interface {
	Classify(ctx context.Context, utterance, excerpt string) (types.ClassifierDecision, error)
}

// Responder produces the mentor reply.
type Responder interface {
	Respond(ctx context.Context, instruction string, history []types.Turn, utterance, modelName string) agent.Result
}

// Memory is long-term profile and history storage.
type Memory interface {
	Recall(ctx context.Context, userID, query string) memory.Recall
	Learn(ctx context.Context, userID string, decision types.ClassifierDecision) (bool, error)
	Remember(ctx context.Context, record types.HistoryRecord) error
	ForgetCasual(ctx context.Context, userID string) (int64, error)
}

// World describes the caller's surroundings in one line.
type World interface {
	Describe(ctx context.Context, clientIP string) string
}

// Input is one user submission.
type Input struct {
	Message    string
	Attachment *types.Attachment
	ClientIP   string
}

// Reply is what the UI renders for a turn.
type Reply struct {
	Text     string `json:"reply"`
	Model    string `json:"model"`
	Label    string `json:"label"`
	Fallback bool   `json:"fallback"`
	PII      bool   `json:"pii"`
	// Failed is set when neither model answered and Text holds the error reply.
	Failed bool `json:"failed,omitempty"`
}

// Deps wires the collaborators of a Service. Classifier, Memory and World are optional.
type Deps struct {
	Scanner    *privacy.Scanner
	Ingestor   *ingest.Ingestor
	Builder    *prompt.Builder
	Router     *router.Router
	Responder  Responder
	Classifier Classifier
	Memory     Memory
	World      World
	Metrics    *observability.Metrics
}

// Options tune a Service.
type Options struct {
	SessionWindow int
}

// Service orchestrates turns.
type Service struct {
	deps Deps
	opts Options
}

// NewService validates deps and returns a Service.
func NewService(deps Deps, opts Options) (*Service, error) {
	if deps.Responder == nil {
		return nil, fmt.Errorf("responder is required")
	}
	if deps.Router == nil {
		return nil, fmt.Errorf("router is required")
	}
	if deps.Scanner == nil {
		deps.Scanner = privacy.NewScanner()
	}
	if deps.Builder == nil {
		deps.Builder = prompt.NewBuilder(0)
	}
	if opts.SessionWindow <= 0 {
		opts.SessionWindow = 20
	}
	return &Service{deps: deps, opts: opts}, nil
}

// HandleTurn runs one turn for sess. The turn is always appended to the session,
// including when both models failed.
func (s *Service) HandleTurn(ctx context.Context, sess *session.Session, in Input) (Reply, error) {
	message := strings.TrimSpace(in.Message)
	hasAttachment := in.Attachment != nil && len(in.Attachment.Data) > 0
	if message == "" && !hasAttachment {
		return Reply{}, ErrEmptyInput
	}

	done := sess.BeginTurn()
	defer done()
	start := time.Now()

	var excerpt ingest.Excerpt
	if hasAttachment && s.deps.Ingestor != nil {
		excerpt = s.deps.Ingestor.Ingest(in.Attachment)
		if excerpt.Err != nil {
			slog.Warn("attachment could not be read", "name", excerpt.Name, "error", excerpt.Err)
		}
	}
	utterance := message
	if utterance == "" {
		utterance = fmt.Sprintf("Analise o arquivo %s.", excerpt.Name)
	}

	fileText := excerpt.Content
	if fileText == "" {
		fileText = excerpt.Text
	}
	pii := s.scanPII(message, fileText)

	var recall memory.Recall
	if s.deps.Memory != nil {
		recall = s.deps.Memory.Recall(ctx, sess.UserID, utterance)
	}

	var world string
	if s.deps.World != nil {
		world = s.deps.World.Describe(ctx, in.ClientIP)
	}

	instruction, err := s.deps.Builder.Build(prompt.BuildContext{
		Persona: sess.Persona,
		Profile: recall.Profile,
		History: recall.History,
		Similar: recall.Similar,
		Excerpt: excerpt.Text,
		World:   world,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to build instruction: %w", err)
	}

	decision := s.classify(ctx, utterance, excerpt.Text)
	if s.deps.Memory != nil {
		changed, err := s.deps.Memory.Learn(ctx, sess.UserID, decision)
		if err != nil {
			slog.Warn("failed to update profile", "error", err)
			s.deps.Metrics.StoreError("update_profile")
		} else if changed {
			field, _ := decision.ProfileField()
			s.deps.Metrics.ProfileUpdated(string(field))
		}
	}

	route := s.deps.Router.Route(utterance, hasAttachment)
	history := sess.Window(s.opts.SessionWindow)
	result := s.deps.Responder.Respond(ctx, instruction, history, utterance, route.Model)

	text := result.Text
	if pii {
		text = privacy.WithBanner(text)
	}

	reply := Reply{
		Text:     text,
		Model:    result.Model,
		Label:    route.Label,
		Fallback: result.Fallback,
		PII:      pii,
		Failed:   result.Failed(),
	}

	userTurn := types.Turn{Role: types.RoleUser, Text: utterance}
	if hasAttachment {
		userTurn.Text = fmt.Sprintf("%s\n\n📎 %s", utterance, excerpt.Name)
	}
	sess.Append(userTurn, types.Turn{Role: types.RoleAssistant, Text: text, Model: modelCaption(reply)})

	if s.deps.Memory != nil && !result.Failed() {
		record := types.HistoryRecord{
			UserID:   sess.UserID,
			Question: utterance,
			Answer:   result.Text,
			Category: decision.Category(),
			Title:    decision.Title,
			Model:    result.Model,
		}
		if err := s.deps.Memory.Remember(ctx, record); err != nil {
			slog.Warn("failed to persist history", "error", err)
			s.deps.Metrics.StoreError("append_history")
		}
	}

	elapsed := time.Since(start)
	s.deps.Metrics.ObserveTurn(result.Model, route.Label, result.Fallback, result.Failed(), elapsed)
	slog.Info("turn completed",
		"session_id", sess.ID,
		"model", result.Model,
		"label", route.Label,
		"reason", route.Reason,
		"keyword", route.Keyword,
		"fallback", result.Fallback,
		"pii", pii,
		"important", decision.IsImportant,
		"duration_ms", elapsed.Milliseconds(),
	)
	return reply, nil
}

// ForgetCasual removes casual history for userID.
func (s *Service) ForgetCasual(ctx context.Context, userID string) (int64, error) {
	if s.deps.Memory == nil {
		return 0, nil
	}
	n, err := s.deps.Memory.ForgetCasual(ctx, userID)
	if err != nil {
		s.deps.Metrics.StoreError("delete_history")
		return 0, err
	}
	return n, nil
}

func (s *Service) scanPII(message, excerpt string) bool {
	inMessage := s.deps.Scanner.Scan(message)
	inFile := s.deps.Scanner.Scan(excerpt)
	if inMessage {
		s.deps.Metrics.PIIDetected("input")
	}
	if inFile {
		s.deps.Metrics.PIIDetected("file")
	}
	return inMessage || inFile
}

func (s *Service) classify(ctx context.Context, utterance, excerpt string) types.ClassifierDecision {
	if s.deps.Classifier == nil {
		return types.ClassifierDecision{}
	}
	decision, err := s.deps.Classifier.Classify(ctx, utterance, excerpt)
	if err != nil {
		slog.Warn("classifier failed, treating turn as casual", "error", err, "kind", types.KindOf(err))
		s.deps.Metrics.ClassifierFailed()
		return types.ClassifierDecision{}
	}
	return decision
}

// modelCaption is the status line shown under an assistant reply.
func modelCaption(r Reply) string {
	switch {
	case r.Failed:
		return "nenhum modelo respondeu"
	case r.Fallback:
		return fmt.Sprintf("%s (reserva)", r.Model)
	default:
		return fmt.Sprintf("%s (%s)", r.Model, r.Label)
	}
}
