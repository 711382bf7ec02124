package groupd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/kbukum/streamgroup/errors"
	"github.com/kbukum/streamgroup/pipeline"
)

// Key is the canonical JSON encoding of a grouping key. Two keys are equal
// when their JSON values are equal, regardless of object field order or
// insignificant whitespace.
type Key string

// NullKey is the key of records that do not contain the key path.
const NullKey Key = "null"

// MarshalJSON writes the key as the JSON value it encodes.
func (k Key) MarshalJSON() ([]byte, error) {
	if k == "" {
		return []byte(NullKey), nil
	}
	return []byte(k), nil
}

// KeyResolver computes the grouping key of one record.
type KeyResolver interface {
	Resolve(ctx context.Context, rec Record) (Key, error)
}

// KeyPath selects a value inside a JSON document by dot-separated field
// names. Numeric segments also index into arrays, so "tags.0" is the first
// tag.
type KeyPath []string

// ParseKeyPath splits a dot path. Empty segments are rejected.
func ParseKeyPath(path string) (KeyPath, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperrors.MissingField("key")
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" || strings.ContainsAny(s, " \t\r\n") {
			return nil, apperrors.InvalidInput("key", fmt.Sprintf("malformed key path %q", path))
		}
	}
	return KeyPath(segs), nil
}

// String returns the dot form of the path.
func (p KeyPath) String() string { return strings.Join(p, ".") }

// Resolve returns the canonical JSON of the value at the path, or NullKey
// when any segment is absent.
func (p KeyPath) Resolve(_ context.Context, rec Record) (Key, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(rec))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return "", apperrors.KeyResolution(err)
	}

	cur := doc
	for _, seg := range p {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return NullKey, nil
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return NullKey, nil
			}
			cur = v[i]
		default:
			return NullKey, nil
		}
	}
	return canonicalKey(cur)
}

// canonicalKey encodes v with sorted object keys. Numbers keep their
// original text, so 1 and 1.0 are different keys.
func canonicalKey(v any) (Key, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", apperrors.KeyResolution(err)
	}
	return Key(b), nil
}

// newKeyFunc adapts r to the engine. Each key is computed in its own
// goroutine and fails with a TIMEOUT error when it takes longer than
// timeout; timeout <= 0 leaves computations unbounded.
func newKeyFunc(r KeyResolver, timeout time.Duration) pipeline.KeyFunc[Record, Key] {
	return pipeline.Async(func(ctx context.Context, rec Record) (Key, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		type result struct {
			key Key
			err error
		}
		done := make(chan result, 1)
		go func() {
			k, err := r.Resolve(ctx, rec)
			done <- result{k, err}
		}()

		var res result
		select {
		case res = <-done:
		case <-ctx.Done():
			res.err = ctx.Err()
		}
		if res.err == nil {
			return res.key, nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.Timeout("key_resolution").
				WithDetail("timeout", timeout.String())
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", asKeyError(res.err)
	})
}

func asKeyError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.KeyResolution(err)
}
