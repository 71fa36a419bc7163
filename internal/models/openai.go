// Package models adapts OpenAI-compatible chat endpoints to the model.LLM interface.
package models

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"runtime"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/senior-acido/internal/types"
)

// openaiModel wraps an OpenAI-compatible chat client.
type openaiModel struct {
	client *openai.Client
	name   string
}

func (m *openaiModel) Name() string {
	return m.name
}

// GenerateContent yields a single complete response. Streaming requests are answered the same way.
func (m *openaiModel) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	m.maybeAppendUserContent(req)

	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *openaiModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params := buildOpenAIParams(req, m.name)

	resp, err := m.client.Chat.Completions.New(ctx, *params)
	if err != nil {
		attrs := []any{"model", params.Model, "error", err.Error()}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "status", apiErr.StatusCode)
		}
		slog.Error("failed to call llm API", attrs...)
		return nil, types.TransientError("completion "+params.Model, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return nil, types.TransientError("completion "+params.Model, errors.New("resposta vazia do modelo"))
	}

	message := resp.Choices[0].Message
	content := &genai.Content{
		Role:  string(genai.RoleModel),
		Parts: []*genai.Part{},
	}
	if text := strings.TrimSpace(message.Content); text != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: message.Content})
	}

	slog.Debug("llm call completed", "model", params.Model,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)

	return &model.LLMResponse{
		Content:      content,
		TurnComplete: true,
	}, nil
}

func (m *openaiModel) maybeAppendUserContent(req *model.LLMRequest) {
	if len(req.Contents) == 0 {
		req.Contents = append(req.Contents, genai.NewContentFromText("Siga as instruções do sistema.", genai.RoleUser))
	}

	if last := req.Contents[len(req.Contents)-1]; last != nil && last.Role != string(genai.RoleUser) {
		req.Contents = append(req.Contents, genai.NewContentFromText("Continue a partir da última mensagem.", genai.RoleUser))
	}
}

func userAgent(product string) string {
	return fmt.Sprintf("%s/%s go/%s", product, "1.0.0", strings.TrimPrefix(runtime.Version(), "go"))
}
