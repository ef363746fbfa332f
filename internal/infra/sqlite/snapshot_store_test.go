package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"smart-board-game/internal/domain"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "snapshot.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if !empty.Empty() {
		t.Fatalf("expected empty snapshot, got %+v", empty)
	}

	answer := domain.BoolAnswer(true)
	snap := domain.Snapshot{
		Rounds: []domain.Round{{ID: "round1", Name: "Babak 1", QuestionCounts: map[domain.Category]int{domain.C1: 2}, TotalQuestions: 2}},
		Questions: []domain.Question{{
			ID: "q1", Category: domain.C1, Type: domain.TypeTrueFalse,
			Prompt: "Aset adalah sumber daya.", CorrectAnswer: &answer, TimeLimit: 30, Points: 100,
		}},
		Leaderboard: []domain.Player{{ID: "p1", Name: "Siti", Score: 200}},
		AdminPin:    "4321",
		SavedAt:     time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.AdminPin = "9999"
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AdminPin != "9999" {
		t.Fatalf("expected latest save to win, got pin %q", got.AdminPin)
	}
	if len(got.Questions) != 1 || got.Questions[0].CorrectAnswer == nil || !got.Questions[0].CorrectAnswer.Bool() {
		t.Fatalf("unexpected questions %+v", got.Questions)
	}
	if got.Rounds[0].QuestionCounts[domain.C1] != 2 || got.Leaderboard[0].Score != 200 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestSnapshotStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Save(context.Background(), domain.Snapshot{AdminPin: "1111"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AdminPin != "1111" {
		t.Fatalf("expected pin to survive reopen, got %q", got.AdminPin)
	}
}
