// Package router picks the model tier for a turn.
package router

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tier labels shown next to each reply.
const (
	LabelCapable    = "capaz"
	LabelEconomical = "econômico"
)

// Config holds the two model identifiers and the domain vocabulary.
type Config struct {
	CapableModel    string
	EconomicalModel string
	Keywords        []string
}

// Decision records which model was selected and why.
type Decision struct {
	Model  string `json:"model"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
	// Keyword is the first domain keyword found, if any.
	Keyword string `json:"keyword,omitempty"`
}

// Capable reports whether the capable tier was selected.
func (d Decision) Capable() bool { return d.Label == LabelCapable }

// Router matches utterances against a pre-normalized keyword set.
type Router struct {
	cfg      Config
	keywords []keyword
}

type keyword struct {
	raw   string
	match string
}

// New normalizes cfg's keywords once.
func New(cfg Config) *Router {
	r := &Router{cfg: cfg}
	for _, kw := range cfg.Keywords {
		folded := normalize(kw)
		if folded == "" {
			continue
		}
		r.keywords = append(r.keywords, keyword{raw: kw, match: " " + folded + " "})
	}
	return r
}

// Route selects the capable model when an attachment is present or a domain keyword appears.
func (r *Router) Route(utterance string, hasAttachment bool) Decision {
	if hasAttachment {
		return r.capable("anexo presente", "")
	}

	text := " " + normalize(utterance) + " "
	for _, kw := range r.keywords {
		if strings.Contains(text, kw.match) {
			return r.capable("palavra-chave de domínio", kw.raw)
		}
	}
	return Decision{
		Model:  r.cfg.EconomicalModel,
		Label:  LabelEconomical,
		Reason: "conversa geral",
	}
}

func (r *Router) capable(reason, kw string) Decision {
	return Decision{
		Model:   r.cfg.CapableModel,
		Label:   LabelCapable,
		Reason:  reason,
		Keyword: kw,
	}
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases, strips accents and collapses every non alphanumeric run to one space.
func normalize(s string) string {
	folded, _, err := transform.String(foldAccents, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}
