// Package store keeps client records: whole JSON documents a device owns,
// addressed by (device, key) and always replaced in full.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Fixed record keys.
const (
	KeySession = "session"
	KeyCart    = "cart"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrCorrupt  = errors.New("record unreadable")
)

type Store interface {
	// Load returns ErrNotFound when nothing is stored under (device, key).
	Load(ctx context.Context, device, key string) ([]byte, error)
	// Save replaces the whole record.
	Save(ctx context.Context, device, key string, body []byte) error
	// Delete is a no-op for a missing record.
	Delete(ctx context.Context, device, key string) error
}

// LoadJSON decodes the record into out. It reports false when the record is missing.
func LoadJSON(ctx context.Context, s Store, device, key string, out any) (bool, error) {
	body, err := s.Load(ctx, device, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("%w: decode %s record: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func SaveJSON(ctx context.Context, s Store, device, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", key, err)
	}
	return s.Save(ctx, device, key, body)
}
