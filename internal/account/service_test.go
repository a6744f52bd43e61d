package account

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/recommendations"
)

type fakeReindexer struct {
	users []string
}

func (f *fakeReindexer) IndexUser(_ context.Context, userID string) error {
	f.users = append(f.users, userID)
	return nil
}

func seed(t *testing.T, store kvstore.Store, key, value string) {
	t.Helper()
	if err := store.Set(context.Background(), key, []byte(value)); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

func TestClaimGuestMergesDocuments(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	reindex := &fakeReindexer{}
	svc := NewService(store, nil, reindex)

	guest := "guest-device-1"
	seed(t, store, kvstore.UserKey(guest, kvstore.SelectedFoods), `[{"id":"g1","name":"Apple"}]`)
	seed(t, store, kvstore.UserKey(guest, kvstore.ConsumedRecommendations), `{"salmon":2,"kale":1}`)
	seed(t, store, kvstore.UserKey(guest, kvstore.WaterIntake), `{"2026-10-16":500}`)
	seed(t, store, kvstore.UserKey(guest, kvstore.NutritionGoals), `{"calories":1800}`)
	seed(t, store, kvstore.UserKey(guest, kvstore.ReminderSettings), `{"waterInterval":30}`)

	seed(t, store, kvstore.UserKey("u1", kvstore.SelectedFoods), `[{"id":"a1","name":"Rice"}]`)
	seed(t, store, kvstore.UserKey("u1", kvstore.ConsumedRecommendations), `{"salmon":1}`)
	seed(t, store, kvstore.UserKey("u1", kvstore.NutritionGoals), `{"calories":2200}`)

	res, err := svc.ClaimGuest(ctx, guest, "u1")
	if err != nil {
		t.Fatalf("ClaimGuest: %v", err)
	}
	if res.MergedKeys != 3 || res.MovedKeys != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	var foods []map[string]string
	raw, _ := store.Get(ctx, kvstore.UserKey("u1", kvstore.SelectedFoods))
	if err := json.Unmarshal(raw, &foods); err != nil || len(foods) != 2 || foods[0]["id"] != "a1" || foods[1]["id"] != "g1" {
		t.Fatalf("unexpected foods %s", raw)
	}

	var counts map[string]float64
	raw, _ = store.Get(ctx, kvstore.UserKey("u1", kvstore.ConsumedRecommendations))
	if err := json.Unmarshal(raw, &counts); err != nil || counts["salmon"] != 3 || counts["kale"] != 1 {
		t.Fatalf("unexpected counts %s", raw)
	}

	raw, _ = store.Get(ctx, kvstore.UserKey("u1", kvstore.NutritionGoals))
	if string(raw) != `{"calories":2200}` {
		t.Fatalf("account goals should win, got %s", raw)
	}
	raw, _ = store.Get(ctx, kvstore.UserKey("u1", kvstore.WaterIntake))
	if string(raw) != `{"2026-10-16":500}` {
		t.Fatalf("water should move, got %s", raw)
	}

	left, _ := store.Keys(ctx, kvstore.UserKey(guest, ""))
	if len(left) != 0 {
		t.Fatalf("guest keys should be gone, got %v", left)
	}
	if len(reindex.users) != 1 || reindex.users[0] != "u1" {
		t.Fatalf("expected reminder reindex for u1, got %v", reindex.users)
	}
}

func TestClaimGuestNothingToMove(t *testing.T) {
	reindex := &fakeReindexer{}
	svc := NewService(kvstore.NewMemory(), nil, reindex)
	res, err := svc.ClaimGuest(context.Background(), "guest-empty", "u1")
	if err != nil || res != (ClaimResult{}) {
		t.Fatalf("expected empty result, got %+v %v", res, err)
	}
	if len(reindex.users) != 0 {
		t.Fatalf("unexpected reindex %v", reindex.users)
	}
}

func TestClaimGuestRejectsBadIDs(t *testing.T) {
	svc := NewService(kvstore.NewMemory(), nil, nil)
	for _, tc := range [][2]string{{"", "u1"}, {"guest-a", ""}, {"u1", "u1"}, {"guest-a:b", "u1"}} {
		if _, err := svc.ClaimGuest(context.Background(), tc[0], tc[1]); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%v: expected ErrInvalidInput, got %v", tc, err)
		}
	}
}

func TestMergeDocsKeepsAccountOnGarbage(t *testing.T) {
	existing := []byte(`[{"id":"a"}]`)
	if got := mergeDocs(existing, []byte(`[not json`), false); string(got) != string(existing) {
		t.Fatalf("expected existing doc, got %s", got)
	}
	got := mergeDocs([]byte(`{"kale":"x","oats":1}`), []byte(`{"kale":2,"oats":"oops"}`), true)
	if string(got) != `{"kale":2,"oats":1}` {
		t.Fatalf("unreadable counters should not lose the readable side, got %s", got)
	}
}

func TestMergeDocsSumsNumericStringCounters(t *testing.T) {
	got := mergeDocs([]byte(`{"salmon":"3"}`), []byte(`{"salmon":"2","kale":"1"}`), true)
	counts := recommendations.DecodeHistory(got)
	if counts["salmon"] != 5 || counts["kale"] != 1 {
		t.Fatalf("unexpected merged counters %s", got)
	}
}
