// Package agent holds the model-facing roles of a turn: the responder and the classifier.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/senior-acido/internal/types"
)

// DefaultTemperature is used for mentor replies.
const DefaultTemperature = 0.7

// crashReply is shown when neither the routed nor the fallback model answered.
const crashReply = "Deu tela azul aqui! Erro: %v"

// ModelSource resolves a model name to a client.
type ModelSource interface {
	Get(ctx context.Context, name string) (model.LLM, error)
}

// ResponderOptions configures a Responder.
type ResponderOptions struct {
	FallbackModel string
	// Temperature defaults to DefaultTemperature when nil; zero is honored.
	Temperature *float32
	// Timeout bounds each attempt separately.
	Timeout time.Duration
}

// Result is the outcome of one reply attempt chain.
type Result struct {
	Text string
	// Model is the model that produced Text; empty when both attempts failed.
	Model    string
	Fallback bool
	// Err is the last failure when no model answered; Text then holds the crash reply.
	Err error
}

// Failed reports whether no model answered.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Responder sends the composed instruction and the conversation to a chat model.
type Responder struct {
	models ModelSource
	opts   ResponderOptions
}

// NewResponder returns a Responder.
func NewResponder(models ModelSource, opts ResponderOptions) *Responder {
	if opts.Temperature == nil {
		temp := float32(DefaultTemperature)
		opts.Temperature = &temp
	}
	return &Responder{models: models, opts: opts}
}

// Respond asks modelName for a reply and retries once against the fallback model on any failure.
func (r *Responder) Respond(ctx context.Context, instruction string, history []types.Turn, utterance, modelName string) Result {
	req := r.request(instruction, history, utterance)

	text, err := r.attempt(ctx, modelName, req)
	if err == nil {
		return Result{Text: text, Model: modelName}
	}
	slog.Warn("primary model failed, trying fallback",
		"model", modelName, "fallback", r.opts.FallbackModel, "error", err)

	fallback := r.opts.FallbackModel
	if fallback == "" {
		fallback = modelName
	}
	text, fbErr := r.attempt(ctx, fallback, req)
	if fbErr == nil {
		return Result{Text: text, Model: fallback, Fallback: true}
	}
	slog.Error("fallback model failed", "model", fallback, "error", fbErr)
	return Result{
		Text:     fmt.Sprintf(crashReply, fbErr),
		Fallback: true,
		Err:      fbErr,
	}
}

func (r *Responder) attempt(ctx context.Context, name string, req *model.LLMRequest) (string, error) {
	m, err := r.models.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	attemptReq := *req
	attemptReq.Model = name
	text, err := firstResponseText(ctx, m, &attemptReq)
	if err != nil {
		if ctx.Err() != nil && !types.IsTransient(err) {
			return "", types.TransientError("generate "+name, err)
		}
		return "", err
	}
	return text, nil
}

func (r *Responder) request(instruction string, history []types.Turn, utterance string) *model.LLMRequest {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		if turn.Text == "" {
			continue
		}
		role := genai.RoleUser
		if turn.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(utterance, genai.RoleUser))

	temp := *r.opts.Temperature
	return &model.LLMRequest{
		Contents: contents,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
			Temperature:       &temp,
		},
	}
}
