// Package cache stores expensive intermediate results, chiefly stippled
// point sets, so re-running a stage with unchanged inputs is instant.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] when
// several machines share work, and [NullCache] to disable caching. Keys
// are produced by a [Keyer] from content hashes of the inputs plus every
// option that affects the output.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TTLs for cached stages.
const (
	TTLStipple = 30 * 24 * time.Hour
	TTLRender  = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key if present.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// GetJSON decodes the value under key into v. It returns ErrCacheMiss if
// the key is absent or the stored value does not decode.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !hit {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheMiss, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// Keyer builds cache keys for pipeline stages.
type Keyer interface {
	StippleKey(imageHash string, opts StippleKeyOpts) string
	RenderKey(studyHash string, opts RenderKeyOpts) string
}

// StippleKeyOpts are the inputs that change a stippled point set.
type StippleKeyOpts struct {
	Mode           string `json:"mode"`
	Channel        int    `json:"channel"`
	Points         int    `json:"points"`
	Iterations     int    `json:"iterations"`
	PixelsPerPoint int    `json:"ppp"`
	Seed           int64  `json:"seed"`
}

// RenderKeyOpts are the inputs that change a rendered image.
type RenderKeyOpts struct {
	Scale      float64 `json:"scale"`
	LineWidth  float64 `json:"line_width"`
	MinWidth   float64 `json:"min_width"`
	Closed     bool    `json:"closed"`
	Foreground string  `json:"fg"`
	Background string  `json:"bg"`
}

// DefaultKeyer hashes options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// StippleKey returns "stipple:<sha256>".
func (DefaultKeyer) StippleKey(imageHash string, opts StippleKeyOpts) string {
	return hashKey("stipple", imageHash, opts)
}

// RenderKey returns "render:<sha256>".
func (DefaultKeyer) RenderKey(studyHash string, opts RenderKeyOpts) string {
	return hashKey("render", studyHash, opts)
}
