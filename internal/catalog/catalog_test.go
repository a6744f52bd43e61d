package catalog

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestDefaultDatasetLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Len() == 0 {
		t.Fatalf("expected embedded foods")
	}
	if c.Version() == "" {
		t.Fatalf("expected dataset version")
	}
	f, ok := c.Get("lentils")
	if !ok || f.Nutrients.Carbs != 40 {
		t.Fatalf("unexpected lentils record: %+v %v", f, ok)
	}
}

func TestParseJSONListPreservesOrder(t *testing.T) {
	data := `[{"id":"b","name":"B","nutrients":{"calories":1}},{"id":"a","name":"A","nutrients":{"calories":2},"helps":["calories"]}]`
	c, err := Parse([]byte(data), "json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	foods := c.Foods()
	if len(foods) != 2 || foods[0].ID != "b" || foods[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", foods)
	}
}

func TestParseRejectsInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"duplicate id":     `[{"id":"a","name":"A"},{"id":"a","name":"A2"}]`,
		"missing name":     `[{"id":"a"}]`,
		"negative protein": `[{"id":"a","name":"A","nutrients":{"protein":-1}}]`,
		"unknown tag":      `[{"id":"a","name":"A","helps":["fiber"]}]`,
		"bad json":         `{`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data), "json"); !errors.Is(err, ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestEmptyCatalogIsValid(t *testing.T) {
	c, err := Parse([]byte(`{"version":"empty","foods":[]}`), "json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty catalog")
	}
}

type mapOpener map[string]string

func (m mapOpener) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := m[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestLoadPicksFormatFromKey(t *testing.T) {
	store := mapOpener{
		"catalog/foods.yml": "- id: rice\n  name: Rice\n  nutrients: {calories: 200, carbs: 44}\n  helps: [carbs]\n",
	}
	c, err := Load(context.Background(), store, "catalog/foods.yml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f, ok := c.Get("rice"); !ok || f.Nutrients.Carbs != 44 {
		t.Fatalf("unexpected rice: %+v", f)
	}

	if _, err := Load(context.Background(), store, "catalog/missing.json"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for missing object, got %v", err)
	}
}
