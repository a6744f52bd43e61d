package meals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/realtime"
)

type recordingPublisher struct {
	events []realtime.Event
}

func (p *recordingPublisher) Publish(userID string, ev realtime.Event) int {
	p.events = append(p.events, ev)
	return 1
}

func newTestService(t *testing.T) (*Service, *kvstore.Memory, *recordingPublisher) {
	t.Helper()
	store := kvstore.NewMemory()
	pub := &recordingPublisher{}
	svc := NewService(store, nil, pub)
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc, store, pub
}

func TestAddCustomDefaultsMacrosAndPublishes(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	e, err := svc.AddCustom(ctx, "u1", CustomInput{Name: " Homemade soup ", Calories: 320})
	if err != nil {
		t.Fatalf("AddCustom: %v", err)
	}
	if e.Name != "Homemade soup" || e.Quantity != QuantityCustom || e.Protein != 0 {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.ID != "id-1" || e.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", e)
	}
	if len(pub.events) != 1 || pub.events[0].Type != realtime.EventMealLogged {
		t.Fatalf("expected meal.logged event, got %+v", pub.events)
	}

	if _, err := svc.AddCustom(ctx, "u1", CustomInput{Name: ""}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.AddCustom(ctx, "u1", CustomInput{Name: "x", Fats: -2}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative fats, got %v", err)
	}
}

func TestAddPortionScalesPer100g(t *testing.T) {
	svc, _, _ := newTestService(t)
	e, err := svc.AddPortion(context.Background(), "u1", PortionInput{
		Name:    "Cheddar",
		FdcID:   "173414",
		Per100g: Per100g{Calories: 400, Protein: 25, Carbs: 1.2, Fats: 33},
		Grams:   50,
	})
	if err != nil {
		t.Fatalf("AddPortion: %v", err)
	}
	if e.Calories != 200 || e.Protein != 12.5 || e.Carbs != 0.6 || e.Fats != 16.5 {
		t.Fatalf("unexpected scaled values: %+v", e)
	}
	if e.Quantity != "50" || e.Source != SourceDatabase || e.FoodID != "173414" {
		t.Fatalf("unexpected metadata: %+v", e)
	}

	if _, err := svc.AddPortion(context.Background(), "u1", PortionInput{Name: "x", Grams: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero grams, got %v", err)
	}
}

func TestAddScannedDefaultsTo100g(t *testing.T) {
	svc, _, _ := newTestService(t)
	e, err := svc.AddScanned(context.Background(), "u1", ScannedInput{
		Name:    "Protein bar",
		Barcode: "737628064502",
		Per100g: Per100g{Calories: 380, Protein: 30, Carbs: 35, Fats: 12},
	})
	if err != nil {
		t.Fatalf("AddScanned: %v", err)
	}
	if e.Calories != 380 || e.Quantity != QuantityBarcode || e.FoodID != "737628064502" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_ = store.Set(ctx, Key("u1"), []byte(`[
		{"id":"old","name":"Old","calories":1,"timestamp":"2026-10-10T08:00:00Z"},
		{"id":"new","name":"New","calories":1,"timestamp":"2026-10-15T08:00:00Z"}
	]`))

	got, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "old" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestDeleteKeepsUndecodableRecords(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_ = store.Set(ctx, Key("u1"), []byte(`[{"legacy":true},{"id":"a","name":"A","calories":1,"timestamp":"2026-10-15T08:00:00Z"}]`))

	if err := svc.Delete(ctx, "u1", "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	raw, _ := store.Get(ctx, Key("u1"))
	if !strings.Contains(string(raw), `"legacy":true`) || strings.Contains(string(raw), `"id":"a"`) {
		t.Fatalf("unexpected stored log: %s", raw)
	}
	if err := svc.Delete(ctx, "u1", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendRefusesCorruptLog(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_ = store.Set(ctx, Key("u1"), []byte(`{"not":"an array"}`))

	if _, err := svc.AddCustom(ctx, "u1", CustomInput{Name: "x", Calories: 1}); !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument, got %v", err)
	}
	raw, _ := store.Get(ctx, Key("u1"))
	if string(raw) != `{"not":"an array"}` {
		t.Fatalf("corrupt document was overwritten: %s", raw)
	}
}

func TestWaterAccumulatesPerDay(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddWater(ctx, "u1", 250); err != nil {
		t.Fatalf("AddWater: %v", err)
	}
	w, err := svc.AddWater(ctx, "u1", 500)
	if err != nil {
		t.Fatalf("AddWater: %v", err)
	}
	if w.ML != 750 || w.Date != "2026-10-16" {
		t.Fatalf("unexpected water: %+v", w)
	}
	other, err := svc.WaterOn(ctx, "u1", "2026-10-15")
	if err != nil || other.ML != 0 {
		t.Fatalf("expected empty previous day, got %+v %v", other, err)
	}
	if _, err := svc.AddWater(ctx, "u1", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecipeSaveAndLoad(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SaveRecipe(ctx, "u1", "Breakfast"); !errors.Is(err, ErrEmptyLog) {
		t.Fatalf("expected ErrEmptyLog, got %v", err)
	}
	if _, err := svc.AddCustom(ctx, "u1", CustomInput{Name: "Toast", Calories: 120}); err != nil {
		t.Fatalf("AddCustom: %v", err)
	}
	recipe, err := svc.SaveRecipe(ctx, "u1", "Breakfast")
	if err != nil {
		t.Fatalf("SaveRecipe: %v", err)
	}

	loaded, err := svc.LoadRecipe(ctx, "u1", recipe.ID)
	if err != nil {
		t.Fatalf("LoadRecipe: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID == "id-1" || loaded[0].Source != SourceRecipe {
		t.Fatalf("expected a fresh copy, got %+v", loaded)
	}

	raw, _ := store.Get(ctx, Key("u1"))
	var arr []json.RawMessage
	_ = json.Unmarshal(raw, &arr)
	if len(arr) != 2 {
		t.Fatalf("expected recipe to append, log has %d records", len(arr))
	}

	if _, err := svc.LoadRecipe(ctx, "u1", "missing"); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}

func TestSupplements(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.AddSupplement(ctx, "u1", "Vitamin D"); err != nil {
		t.Fatalf("AddSupplement: %v", err)
	}
	items, err := svc.Supplements(ctx, "u1")
	if err != nil || len(items) != 1 || items[0].Name != "Vitamin D" {
		t.Fatalf("unexpected supplements %+v %v", items, err)
	}
}
