package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/queries"
)

// CacheableQuery must be implemented by queries whose results may be reused.
type CacheableQuery interface {
	queries.Query
	CacheKey() string
	ResultPrototype() any // pointer to a value of the handler result type
}

type CacheRecord struct {
	Key      string
	Payload  []byte
	StoredAt time.Time
}

// CacheStore keeps encoded results. Expiry is the store's job.
type CacheStore interface {
	Get(ctx context.Context, key string) (CacheRecord, bool, error)
	Set(ctx context.Context, rec CacheRecord, ttl time.Duration) error
}

type CacheObserver interface {
	ObserveCache(hit bool)
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

type CacheConfig struct {
	Store    CacheStore
	TTL      time.Duration
	Codec    ResultCodec
	Observer CacheObserver
	Logger   *slog.Logger
	Now      func() time.Time
}

var errMissingPrototype = errors.New("middleware: cacheable query requires result prototype")

// Cache serves repeated profile+method pairs from the store. Store failures
// degrade to a miss; errors from the handler are never cached. Request
// metadata is not stored: a hit is stamped with its own time and lookup cost.
func Cache(cfg CacheConfig) QueryMiddleware {
	if cfg.Store == nil {
		panic("middleware: cache store required")
	}
	codec := cfg.Codec
	if codec == nil {
		codec = JSONResultCodec{}
	}
	log := loggerOrDiscard(cfg.Logger)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	observe := func(hit bool) {
		if cfg.Observer != nil {
			cfg.Observer.ObserveCache(hit)
		}
	}
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			cq, ok := q.(CacheableQuery)
			if !ok {
				return next.Ask(ctx, q)
			}
			key := cq.CacheKey()
			if key == "" {
				return next.Ask(ctx, q)
			}
			started := now()
			rec, found, err := cfg.Store.Get(ctx, key)
			if err != nil {
				log.Warn("cache lookup failed", "key", key, "error", err)
			}
			if found {
				value, err := decodeCached(codec, rec.Payload, cq.ResultPrototype())
				if err == nil {
					observe(true)
					return markCached(value, now(), started), nil
				}
				log.Warn("cache entry unreadable", "key", key, "error", err)
			}
			observe(false)

			res, err := next.Ask(ctx, q)
			if err != nil {
				return nil, err
			}
			payload, err := codec.Encode(withoutMetadata(res))
			if err != nil {
				log.Warn("cache encode failed", "key", key, "error", err)
				return res, nil
			}
			if err := cfg.Store.Set(ctx, CacheRecord{Key: key, Payload: payload, StoredAt: now().UTC()}, cfg.TTL); err != nil {
				log.Warn("cache store failed", "key", key, "error", err)
			}
			return res, nil
		})
	}
}

func decodeCached(codec ResultCodec, payload []byte, proto any) (any, error) {
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(payload, proto); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem().Interface(), nil
	}
	return proto, nil
}

func withoutMetadata(value any) any {
	est, ok := value.(dto.Estimate)
	if !ok {
		return value
	}
	est.Metadata = nil
	return est
}

func markCached(value any, at, started time.Time) any {
	est, ok := value.(dto.Estimate)
	if !ok {
		return value
	}
	meta := est.Meta()
	meta.Cached = true
	meta.Timestamp = at.UTC()
	meta.CalculationTimeMs = float64(at.Sub(started).Microseconds()) / 1000
	return est
}
