// Package privacy flags sensitive personal data in user-supplied text.
package privacy

import (
	"regexp"
	"strings"
)

// Banner is prepended to a reply when a turn carried personal data.
const Banner = "⚠️ **Alerta LGPD:** detectei dados pessoais (CPF ou e-mail) na sua mensagem ou no arquivo. " +
	"Evite compartilhar esse tipo de informação por aqui.\n\n"

var (
	// CPFPattern matches Brazilian tax ids written as 000.000.000-00.
	CPFPattern   = regexp.MustCompile(`\d{3}\.\d{3}\.\d{3}-\d{2}`)
	EmailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// Scanner matches text against a fixed set of patterns.
type Scanner struct {
	patterns []*regexp.Regexp
}

// NewScanner returns a Scanner over patterns, or the CPF and email defaults when none are given.
func NewScanner(patterns ...*regexp.Regexp) *Scanner {
	if len(patterns) == 0 {
		patterns = []*regexp.Regexp{CPFPattern, EmailPattern}
	}
	return &Scanner{patterns: patterns}
}

// Scan reports whether any of texts matches any pattern.
func (s *Scanner) Scan(texts ...string) bool {
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, p := range s.patterns {
			if p.MatchString(text) {
				return true
			}
		}
	}
	return false
}

// WithBanner prepends Banner to reply unless it is already there.
func WithBanner(reply string) string {
	if strings.HasPrefix(reply, Banner) {
		return reply
	}
	return Banner + reply
}
