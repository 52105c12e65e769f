// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/sovereignos/guard/internal/errors"
	"github.com/sovereignos/guard/internal/httputil"
)

// clientRateLimiterStore holds per-client rate limiters with periodic
// stale-entry cleanup.
type clientRateLimiterStore struct {
	limiters sync.Map // map[uuid.UUID]*clientRateLimiterEntry
	rps      float64
	burst    int
}

// clientRateLimiterEntry pairs a rate limiter with its last access time so
// the cleanup sweep can drop limiters for clients that stopped calling.
type clientRateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// RateLimitMiddleware enforces per-client rate limiting on authenticated
// requests. MUST run after AuthenticationMiddleware: the limiter is keyed by
// the authenticated client ID, so every provisioned principal gets an
// independent token bucket regardless of where it calls from.
//
// Exceeding the limit returns 429 with a Retry-After header.
func RateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &clientRateLimiterStore{
		rps:   rps,
		burst: burst,
	}

	go store.cleanupStale(context.Background(), 5*time.Minute)

	return func(c *gin.Context) {
		client, ok := GetClient(c.Request.Context())
		if !ok || client == nil {
			// Authentication middleware should have rejected the request already.
			logger.Error("rate limit middleware: no authenticated client in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		limiter := store.getLimiter(client.ID)

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(reservation.Delay().Seconds())
			reservation.Cancel()

			logger.Debug("rate limit exceeded",
				slog.String("client_id", client.ID.String()),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getLimiter retrieves or creates a rate limiter for a client.
func (s *clientRateLimiterStore) getLimiter(clientID uuid.UUID) *rate.Limiter {
	if val, ok := s.limiters.Load(clientID); ok {
		entry := val.(*clientRateLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		entry.mu.Unlock()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(s.rps), s.burst)
	s.limiters.Store(clientID, &clientRateLimiterEntry{
		limiter:    limiter,
		lastAccess: time.Now(),
	})
	return limiter
}

// sweepStale removes limiters whose last access is before the threshold.
func (s *clientRateLimiterStore) sweepStale(threshold time.Time) {
	s.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*clientRateLimiterEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if stale {
			s.limiters.Delete(key)
		}
		return true
	})
}

// cleanupStale periodically sweeps limiters for clients idle longer than an
// hour, bounding memory against client churn.
func (s *clientRateLimiterStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepStale(time.Now().Add(-1 * time.Hour))
		}
	}
}
