package router

import (
	"testing"

	"github.com/easeaico/senior-acido/internal/config"
)

const (
	capableModel    = "llama-3.3-70b-versatile"
	economicalModel = "llama-3.1-8b-instant"
)

func testConfig() Config {
	return Config{
		CapableModel:    capableModel,
		EconomicalModel: economicalModel,
		Keywords:        config.DefaultRouting().Keywords(),
	}
}

func TestRoute(t *testing.T) {
	r := New(testConfig())
	cases := []struct {
		name       string
		utterance  string
		attachment bool
		want       string
		keyword    string
	}{
		{"keyword sql", "explique SQL pipeline", false, capableModel, ""},
		{"small talk", "oi, tudo bem?", false, economicalModel, ""},
		{"attachment wins", "oi, tudo bem?", true, capableModel, ""},
		{"attachment with keyword", "resuma o SQL", true, capableModel, ""},
		{"accent folded", "Como funciona a governanca de dados?", false, capableModel, ""},
		{"accented keyword", "me explica índices", false, capableModel, "índices"},
		{"multi word", "vale a pena um Data Lake?", false, capableModel, "data lake"},
		{"iot", "meu sensor MQTT caiu", false, capableModel, ""},
		{"lgpd punctuation", "isso fere a LGPD?!", false, capableModel, "lgpd"},
		{"substring is not a word", "que rapido", false, economicalModel, ""},
		{"empty", "", false, economicalModel, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Route(tc.utterance, tc.attachment)
			if got.Model != tc.want {
				t.Fatalf("Route(%q, %v) = %q, want %q", tc.utterance, tc.attachment, got.Model, tc.want)
			}
			if tc.keyword != "" && got.Keyword != tc.keyword {
				t.Fatalf("expected keyword %q, got %q", tc.keyword, got.Keyword)
			}
		})
	}
}

func TestRouteAttachmentAlwaysCapable(t *testing.T) {
	r := New(testConfig())
	for _, utterance := range []string{"", "oi", "obrigado!", "bom dia, tudo certo?"} {
		got := r.Route(utterance, true)
		if !got.Capable() || got.Model != capableModel {
			t.Fatalf("attachment should select capable model for %q, got %+v", utterance, got)
		}
		if got.Keyword != "" {
			t.Fatalf("attachment decision should not report a keyword, got %q", got.Keyword)
		}
	}
}

func TestRouteCustomKeywords(t *testing.T) {
	cfg := Config{CapableModel: "big", EconomicalModel: "small", Keywords: []string{"Terraform", "  "}}
	r := New(cfg)
	if got := r.Route("como versiono meu terraform?", false); got.Model != "big" || got.Keyword != "Terraform" {
		t.Fatalf("expected custom keyword to route capable, got %+v", got)
	}
	if got := r.Route("explique SQL", false); got.Model != "small" {
		t.Fatalf("default keywords should not apply to custom config, got %+v", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  Índices,   SEGURANÇA!!  da-dos "); got != "indices seguranca da dos" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
