package models

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Factory builds a model.LLM for a model name.
type Factory func(ctx context.Context, modelName string) (model.LLM, error)

// Registry caches one client per model name.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	models  map[string]model.LLM
}

// NewRegistry returns a Registry that builds clients with factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		models:  make(map[string]model.LLM),
	}
}

// NewGroqRegistry returns a Registry of Groq clients sharing one API key and endpoint.
func NewGroqRegistry(apiKey, baseURL string) *Registry {
	cfg := &genai.ClientConfig{APIKey: apiKey}
	cfg.HTTPOptions.BaseURL = baseURL
	return NewRegistry(func(ctx context.Context, name string) (model.LLM, error) {
		return NewGroqModel(ctx, name, cfg)
	})
}

// Get returns the client for name, creating it on first use.
func (r *Registry) Get(ctx context.Context, name string) (model.LLM, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.models[name]; ok {
		return m, nil
	}
	if r.factory == nil {
		return nil, fmt.Errorf("no model factory configured")
	}
	m, err := r.factory(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create model %s: %w", name, err)
	}
	r.models[name] = m
	return m, nil
}
