package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easeaico/senior-acido/internal/types"
)

func TestInMemoryProfile(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	if _, err := store.GetProfile(ctx, "u1"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateProfileField(ctx, "u1", types.FieldInterests, "Go"); err != nil {
		t.Fatalf("UpdateProfileField: %v", err)
	}
	if err := store.UpdateProfileField(ctx, "u1", types.FieldEducation, "Ciência da Computação"); err != nil {
		t.Fatalf("UpdateProfileField: %v", err)
	}
	profile, err := store.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.InterestsSummary != "Go" || profile.EducationSummary != "Ciência da Computação" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if err := store.UpdateProfileField(ctx, "u1", types.ProfileField("salary"), "x"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestInMemoryRecentHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, q := range []string{"a", "b", "c"} {
		record := types.HistoryRecord{UserID: "u1", Question: q, Answer: "r", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.AppendHistory(ctx, record); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	_ = store.AppendHistory(ctx, types.HistoryRecord{UserID: "other", Question: "z"})

	recent, err := store.RecentHistory(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(recent) != 2 || recent[0].Question != "c" || recent[1].Question != "b" {
		t.Fatalf("unexpected order: %+v", recent)
	}
	if recent[0].Category != types.CategoryCasual {
		t.Fatalf("expected default category casual, got %q", recent[0].Category)
	}
}

func TestInMemoryForgetCasualKeepsImportant(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	records := []types.HistoryRecord{
		{UserID: "u1", Question: "oi", Category: types.CategoryCasual},
		{UserID: "u1", Question: "sou formado em SI", Category: types.CategoryImportant},
		{UserID: "u1", Question: "bom dia", Category: types.CategoryCasual},
		{UserID: "u2", Question: "oi", Category: types.CategoryCasual},
	}
	for _, r := range records {
		_ = store.AppendHistory(ctx, r)
	}

	deleted, err := store.DeleteHistoryByCategory(ctx, "u1", types.CategoryCasual)
	if err != nil {
		t.Fatalf("DeleteHistoryByCategory: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	left, _ := store.RecentHistory(ctx, "u1", 10)
	if len(left) != 1 || left[0].Category != types.CategoryImportant {
		t.Fatalf("unexpected remaining history: %+v", left)
	}
	others, _ := store.RecentHistory(ctx, "u2", 10)
	if len(others) != 1 {
		t.Fatalf("other user history touched: %+v", others)
	}
}

func TestInMemorySearchSimilar(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	_ = store.AppendHistory(ctx, types.HistoryRecord{UserID: "u1", Question: "near", Embedding: []float32{1, 0}})
	_ = store.AppendHistory(ctx, types.HistoryRecord{UserID: "u1", Question: "mid", Embedding: []float32{1, 1}})
	_ = store.AppendHistory(ctx, types.HistoryRecord{UserID: "u1", Question: "far", Embedding: []float32{0, 1}})
	_ = store.AppendHistory(ctx, types.HistoryRecord{UserID: "u1", Question: "none"})

	results, err := store.SearchSimilar(ctx, "u1", []float32{1, 0}, 0.5, 3)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above threshold, got %+v", results)
	}
	if results[0].Question != "near" || results[1].Question != "mid" {
		t.Fatalf("unexpected ranking: %+v", results)
	}
}

func TestMemoryStoreIsNotPersistent(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	if store.Persistent() {
		t.Fatal("memory store should not report persistent")
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := store.Exec(context.Background(), "SELECT 1"); err == nil {
		t.Fatal("Exec should fail without a database")
	}
	if ok, err := store.HasVectorExtension(context.Background()); ok || err != nil {
		t.Fatalf("HasVectorExtension = %v, %v", ok, err)
	}
}
