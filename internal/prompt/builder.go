// Package prompt assembles the system instruction sent with every completion.
package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/easeaico/senior-acido/internal/types"
	"github.com/easeaico/senior-acido/internal/utils"
)

// BuildContext contains all inputs for instruction assembly.
type BuildContext struct {
	Persona string
	Profile types.Profile
	// History is chronological, oldest first.
	History []types.HistoryRecord
	Similar []types.SimilarRecord
	Excerpt string
	World   string
}

// Builder assembles the layered system instruction.
type Builder struct {
	maxChars int
}

// NewBuilder creates a Builder that caps instructions at maxChars runes.
func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = 24000
	}
	return &Builder{maxChars: maxChars}
}

// Build renders persona, behavioural rules, profile, history and file excerpt in that order.
func (b *Builder) Build(ctx BuildContext) (string, error) {
	persona := strings.TrimSpace(ctx.Persona)
	if persona == "" {
		persona = FallbackPersona
	}

	data := struct {
		Persona    string
		World      string
		HasProfile bool
		Profile    types.Profile
		History    []types.HistoryRecord
		Similar    []types.SimilarRecord
		Excerpt    string
	}{
		Persona:    persona,
		World:      strings.TrimSpace(ctx.World),
		HasProfile: !ctx.Profile.IsEmpty(),
		Profile:    ctx.Profile,
		History:    ctx.History,
		Similar:    ctx.Similar,
		Excerpt:    strings.TrimSpace(ctx.Excerpt),
	}

	var buf bytes.Buffer
	if err := instructionTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build instruction: %w", err)
	}
	return utils.TruncateRunes(buf.String(), b.maxChars), nil
}
