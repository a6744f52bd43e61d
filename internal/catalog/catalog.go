// Package catalog loads the static food dataset recommendations are drawn from.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/foods.yaml
var defaultDataset []byte

var ErrUnavailable = errors.New("food catalog unavailable")

// Opener reads a stored object; satisfied by the object stores.
type Opener interface {
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// Catalog is an immutable, ordered set of foods. Order is the dataset order and
// is significant for tie breaking.
type Catalog struct {
	version string
	foods   []Food
	byID    map[string]int
}

// Default returns the dataset compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultDataset, "yaml")
}

// Load reads the dataset stored at key. The format follows the key's extension
// (.json, .yaml or .yml).
func Load(ctx context.Context, store Opener, key string) (*Catalog, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: no object store", ErrUnavailable)
	}
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	return Parse(data, formatFromKey(key))
}

// Parse decodes and validates a dataset. A dataset may be a bare list of foods
// or an object with version and foods.
func Parse(data []byte, format string) (*Catalog, error) {
	var ds dataset
	trimmed := bytes.TrimSpace(data)
	var err error
	switch format {
	case "json":
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &ds.Foods)
		} else {
			err = json.Unmarshal(trimmed, &ds)
		}
	case "yaml":
		if len(trimmed) > 0 && trimmed[0] == '-' {
			err = yaml.Unmarshal(trimmed, &ds.Foods)
		} else {
			err = yaml.Unmarshal(trimmed, &ds)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrUnavailable, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return New(ds.Version, ds.Foods)
}

// New validates foods and builds a catalog. An empty list is valid.
func New(version string, foods []Food) (*Catalog, error) {
	c := &Catalog{
		version: version,
		foods:   make([]Food, 0, len(foods)),
		byID:    make(map[string]int, len(foods)),
	}
	for _, f := range foods {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if _, dup := c.byID[f.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate food id %s", ErrUnavailable, f.ID)
		}
		f.Helps = append([]string(nil), f.Helps...)
		c.byID[f.ID] = len(c.foods)
		c.foods = append(c.foods, f)
	}
	return c, nil
}

func (c *Catalog) Version() string { return c.version }

func (c *Catalog) Len() int { return len(c.foods) }

// Foods returns a copy of the catalog in dataset order.
func (c *Catalog) Foods() []Food {
	out := make([]Food, len(c.foods))
	copy(out, c.foods)
	return out
}

// Get looks a food up by id.
func (c *Catalog) Get(id string) (Food, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Food{}, false
	}
	return c.foods[i], true
}

func formatFromKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}
