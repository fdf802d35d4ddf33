package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/config"
)

// captureWriter tees the response body (up to limit bytes) while
// forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.truncated {
		if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
			cw.truncated = true
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// responseCache stores successful responses (status, headers and body) in
// Redis so a hit is byte-identical to the original.
type responseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *zerolog.Logger
	ttl time.Duration
}

// NewRedisCache caches the responses of the routes it wraps.  Only the
// methods in cfg.Methods are cached; responses larger than MaxBodyBytes are
// served but never stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zerolog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	rc := &responseCache{cfg: cfg, rdb: rdb, log: log, ttl: cfg.TTL}
	if rc.ttl <= 0 {
		rc.ttl = 30 * time.Second
	}
	return rc.middleware
}

func (rc *responseCache) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
			return next(c)
		}
		key := cacheKey(rc.cfg, c)
		if rc.serveHit(c, key) {
			return nil
		}

		cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
		c.Response().Writer = cw
		c.Response().Header().Set("X-Cache", "MISS")
		if err := next(c); err != nil {
			return err
		}
		if cw.status != http.StatusOK || cw.truncated {
			return nil
		}
		payload, err := encodePayload(cw.status, c.Response().Header().Clone(), cw.buf.Bytes())
		if err != nil {
			return nil
		}
		// The request context may already be done once the body is flushed.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := rc.rdb.SetEx(ctx, key, payload, rc.ttl).Err(); err != nil {
			rc.log.Warn().Err(err).Str("key", key).Msg("cache store failed")
		}
		return nil
	}
}

func (rc *responseCache) serveHit(c echo.Context, key string) bool {
	bs, err := rc.rdb.Get(c.Request().Context(), key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			rc.log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		}
		return false
	}
	status, hdr, body, ok := decodePayload(bs)
	if !ok {
		return false
	}
	out := c.Response().Header()
	for k, vals := range hdr {
		if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "X-Cache") {
			continue
		}
		for _, v := range vals {
			out.Add(k, v)
		}
	}
	out.Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	if len(body) > 0 {
		_, _ = c.Response().Write(body)
	}
	return true
}

// cacheKey hashes the request parts chosen by the key strategy.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default: // route_query
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}
