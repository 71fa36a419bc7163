package memory

import (
	"context"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := context.Background()

	a, _ := e.EmbedDocument(ctx, "Como criar índices SQL no Postgres?")
	b, _ := e.EmbedQuery(ctx, "Como criar índices SQL no Postgres?")
	if len(a) != DefaultDimensions {
		t.Fatalf("expected %d dimensions, got %d", DefaultDimensions, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d", i)
		}
	}
	if got := cosine(a, a); math.Abs(got-1) > 1e-5 {
		t.Fatalf("expected unit vector, got self-similarity %f", got)
	}
}

func TestHashEmbedderSimilarity(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)
	ctx := context.Background()

	q, _ := e.EmbedQuery(ctx, "índices SQL no postgres")
	near, _ := e.EmbedDocument(ctx, "como funcionam índices em SQL")
	far, _ := e.EmbedDocument(ctx, "receita de bolo de cenoura")

	if cosine(q, near) <= cosine(q, far) {
		t.Fatalf("related text should be closer: near=%f far=%f", cosine(q, near), cosine(q, far))
	}
}

func TestHashEmbedderEmpty(t *testing.T) {
	vec, err := NewHashEmbedder(8).EmbedQuery(context.Background(), " ?! ")
	if err != nil || vec != nil {
		t.Fatalf("expected nil vector for text without words, got %v %v", vec, err)
	}
}
