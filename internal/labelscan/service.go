package labelscan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"nutrition-backend/internal/shared/storage/object"
	"nutrition-backend/internal/shared/telemetry"
)

const maxLabelSize = 10 << 20

// Service stores uploaded labels and turns them into product drafts.
type Service struct {
	Store object.ObjectStore
}

func NewService(store object.ObjectStore) *Service {
	return &Service{Store: store}
}

// Scan saves the upload, extracts its text next to it and parses a draft.
func (s *Service) Scan(ctx context.Context, userID, fileName, mimeType, name string, r io.Reader) (Draft, error) {
	if strings.TrimSpace(fileName) == "" {
		return Draft{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxLabelSize+1))
	if err != nil {
		return Draft{}, fmt.Errorf("read label: %w", err)
	}
	if len(data) == 0 {
		return Draft{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if len(data) > maxLabelSize {
		return Draft{}, fmt.Errorf("%w: file exceeds 10MB", ErrInvalidInput)
	}

	text, err := TextFromBytes(ctx, data, mimeType, fileName)
	if err != nil {
		return Draft{}, err
	}

	var key string
	if s.Store != nil {
		key, _, _, err = s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
		if err != nil {
			return Draft{}, fmt.Errorf("save label: %w", err)
		}
		if _, err := s.Store.SaveWithKey(ctx, key+".extracted.txt", "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
			return Draft{}, fmt.Errorf("save extracted text: %w", err)
		}
	}

	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}
	draft, err := Parse(text, name)
	if err != nil {
		telemetry.Warn("labelscan.no_nutrients", map[string]any{
			"user_id":     userID,
			"storage_key": key,
			"text_len":    len(text),
		})
		return Draft{}, err
	}
	draft.StorageKey = key
	telemetry.Info("labelscan.parsed", map[string]any{
		"user_id":     userID,
		"storage_key": key,
		"found":       draft.Found,
	})
	return draft, nil
}
