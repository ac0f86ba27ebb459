package grpc

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// DefaultRequestTimeoutInterceptor bounds requests that arrive without a deadline.
func DefaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

// peerLimiters keeps one token bucket per remote address.
type peerLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (p *peerLimiters) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = l
	}
	return l
}

// RateLimitInterceptor rejects calls with ResourceExhausted once a peer exceeds rps requests
// per second with the given burst. A non-positive rps disables limiting.
func RateLimitInterceptor(rps float64, burst int, log *slog.Logger) grpc.UnaryServerInterceptor {
	if rps <= 0 {
		return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			return handler(ctx, req)
		}
	}
	if burst < 1 {
		burst = 1
	}
	if log == nil {
		log = slog.Default()
	}
	limiters := &peerLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		key := peerKey(ctx)
		if !limiters.get(key).Allow() {
			log.Warn("rate limit exceeded", slog.String("peer", key), slog.String("method", info.FullMethod))
			return nil, status.Error(codes.ResourceExhausted, "Too many requests. Try again shortly.")
		}
		return handler(ctx, req)
	}
}

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	// Drop the ephemeral port so reconnects share a bucket.
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
