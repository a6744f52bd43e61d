package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"nutrition-backend/internal/catalog"
	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/meals"
	"nutrition-backend/internal/realtime"
	"nutrition-backend/internal/shared/telemetry"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(userID string, ev realtime.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return 1
}

// flakyStore hides any Transactor of the wrapped store and fails chosen keys.
type flakyStore struct {
	kvstore.Store
	failGet map[string]bool
	failSet map[string]bool
}

var errFlaky = errors.New("store offline")

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failGet[key] {
		return nil, errFlaky
	}
	return s.Store.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet[key] {
		return errFlaky
	}
	return s.Store.Set(ctx, key, value)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New("test", []catalog.Food{
		foodA(),
		{ID: "B", Name: "Food B", Nutrients: catalog.Nutrients{Calories: 90, Protein: 2, Carbs: 20}},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func newTestService(t *testing.T, store kvstore.Store) (*Service, *recordingPublisher) {
	t.Helper()
	telemetry.SetOutput(io.Discard)
	pub := &recordingPublisher{}
	svc := NewService(testCatalog(t), store, nil, DefaultConfig(), pub)
	svc.Now = func() time.Time { return testNow }
	n := 0
	var mu sync.Mutex
	svc.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc, pub
}

func TestRecommendEmptyUser(t *testing.T) {
	svc, _ := newTestService(t, kvstore.NewMemory())

	res, err := svc.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.CatalogVersion != "test" || len(res.Items) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Items[0].ID != "A" || res.Items[0].Score != 65.2 {
		t.Fatalf("unexpected first item %+v", res.Items[0])
	}
	if len(res.UnderConsumed) != 4 {
		t.Fatalf("expected all nutrients under-consumed, got %v", res.UnderConsumed)
	}
}

func TestRecommendTreatsReadFailureAsNoData(t *testing.T) {
	mem := kvstore.NewMemory()
	ctx := context.Background()
	_ = mem.Set(ctx, HistoryKey("u1"), []byte(`{"A":4}`))
	store := &flakyStore{Store: mem, failGet: map[string]bool{
		meals.Key("u1"):  true,
		HistoryKey("u1"): true,
	}}
	svc, _ := newTestService(t, store)

	res, err := svc.Recommend(ctx, "u1")
	if err != nil {
		t.Fatalf("read failure must not fail the pass: %v", err)
	}
	if res.Items[0].Score != 65.2 {
		t.Fatalf("expected history to be ignored, got %v", res.Items[0].Score)
	}
}

func TestRecommendWithoutCatalog(t *testing.T) {
	svc, _ := newTestService(t, kvstore.NewMemory())
	svc.Catalog = nil
	if _, err := svc.Recommend(context.Background(), "u1"); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if _, err := svc.Accept(context.Background(), "u1", "A"); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestCatalogLoadErrorMatchesEngineSentinel(t *testing.T) {
	_, err := catalog.Parse([]byte("{"), "json")
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("catalog load failure should match ErrCatalogUnavailable, got %v", err)
	}
	svc, _ := newTestService(t, kvstore.NewMemory())
	svc.Catalog = nil
	if _, err := svc.Recommend(context.Background(), "u1"); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("engine error should match catalog.ErrUnavailable, got %v", err)
	}
}

func TestAcceptRecordsMealAndHistory(t *testing.T) {
	mem := kvstore.NewMemory()
	svc, pub := newTestService(t, mem)
	ctx := context.Background()

	res, err := svc.Accept(ctx, "u1", "A")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !res.HistoryRecorded || res.AcceptCount != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	e := res.Entry
	if e.Name != "Food A" || e.Calories != 200 || e.Quantity != meals.QuantityRecommendation || e.FoodID != "A" || !e.Timestamp.Equal(testNow) {
		t.Fatalf("unexpected entry %+v", e)
	}

	res, err = svc.Accept(ctx, "u1", "A")
	if err != nil || res.AcceptCount != 2 {
		t.Fatalf("second accept: %+v %v", res, err)
	}

	hist, _ := LoadHistory(ctx, mem, "u1")
	if hist["A"] != 2 {
		t.Fatalf("expected count 2, got %v", hist)
	}
	entries, _ := meals.NewLog(mem, nil).Entries(ctx, "u1")
	if len(entries) != 2 {
		t.Fatalf("expected two logged meals, got %d", len(entries))
	}
	if len(pub.events) != 2 || pub.events[0].Type != realtime.EventRecommendationTake {
		t.Fatalf("expected accept events, got %+v", pub.events)
	}

	// The accepted meal now feeds the next pass.
	after, _ := svc.Recommend(ctx, "u1")
	if after.Averages.Calories != 200 {
		t.Fatalf("expected accepted meals in averages, got %+v", after.Averages)
	}
}

func TestAcceptUnknownFood(t *testing.T) {
	mem := kvstore.NewMemory()
	svc, _ := newTestService(t, mem)
	if _, err := svc.Accept(context.Background(), "u1", "nope"); !errors.Is(err, ErrFoodNotFound) {
		t.Fatalf("expected ErrFoodNotFound, got %v", err)
	}
	if keys, _ := mem.Keys(context.Background(), "user:u1:"); len(keys) != 0 {
		t.Fatalf("nothing should be written, got %v", keys)
	}
}

func TestAcceptTransactionRollsBackBothWrites(t *testing.T) {
	mem := kvstore.NewMemory()
	ctx := context.Background()
	_ = mem.Set(ctx, HistoryKey("u1"), []byte(`["not","an","object"]`))
	svc, pub := newTestService(t, mem)

	_, err := svc.Accept(ctx, "u1", "A")
	if !errors.Is(err, ErrAcceptNotRecorded) {
		t.Fatalf("expected ErrAcceptNotRecorded, got %v", err)
	}
	if _, err := mem.Get(ctx, meals.Key("u1")); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("meal log must not be committed, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("failed accept must not publish")
	}
}

func TestAcceptWithoutTransactionsMealFailure(t *testing.T) {
	mem := kvstore.NewMemory()
	store := &flakyStore{Store: mem, failSet: map[string]bool{meals.Key("u1"): true}}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Accept(ctx, "u1", "A"); !errors.Is(err, ErrAcceptNotRecorded) {
		t.Fatalf("expected ErrAcceptNotRecorded, got %v", err)
	}
	if _, err := mem.Get(ctx, HistoryKey("u1")); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("history must not be touched when the meal write fails, got %v", err)
	}
}

func TestAcceptWithoutTransactionsHistoryFailure(t *testing.T) {
	mem := kvstore.NewMemory()
	store := &flakyStore{Store: mem, failSet: map[string]bool{HistoryKey("u1"): true}}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	res, err := svc.Accept(ctx, "u1", "A")
	if err != nil {
		t.Fatalf("history failure must not fail the accept: %v", err)
	}
	if res.HistoryRecorded || res.AcceptCount != 0 {
		t.Fatalf("expected unrecorded history, got %+v", res)
	}
	entries, _ := meals.NewLog(mem, nil).Entries(ctx, "u1")
	if len(entries) != 1 {
		t.Fatalf("meal must be logged, got %d entries", len(entries))
	}
}

func TestAcceptPreservesForeignHistoryValues(t *testing.T) {
	mem := kvstore.NewMemory()
	ctx := context.Background()
	_ = mem.Set(ctx, HistoryKey("u1"), []byte(`{"A":"3","legacy":{"x":1}}`))
	svc, _ := newTestService(t, mem)

	res, err := svc.Accept(ctx, "u1", "A")
	if err != nil || res.AcceptCount != 4 {
		t.Fatalf("expected count 4, got %+v %v", res, err)
	}
	raw, _ := mem.Get(ctx, HistoryKey("u1"))
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(doc["legacy"]) != `{"x":1}` || string(doc["A"]) != "4" {
		t.Fatalf("unexpected history document %s", raw)
	}
}

func TestConcurrentAcceptsAreNotLost(t *testing.T) {
	mem := kvstore.NewMemory()
	svc, _ := newTestService(t, mem)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "A"
			if i%2 == 1 {
				id = "B"
			}
			if _, err := svc.Accept(ctx, "u1", id); err != nil {
				t.Errorf("Accept: %v", err)
			}
		}(i)
	}
	wg.Wait()

	hist, _ := LoadHistory(ctx, mem, "u1")
	if hist["A"] != n/2 || hist["B"] != n/2 {
		t.Fatalf("lost updates: %v", hist)
	}
	entries, _ := meals.NewLog(mem, nil).Entries(ctx, "u1")
	if len(entries) != n {
		t.Fatalf("expected %d meals, got %d", n, len(entries))
	}
}
