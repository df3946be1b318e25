package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	h "meetingscheduler/internal/delivery/http/helpers"
	"meetingscheduler/internal/domain"
)

// RateLimit allows at most limit requests per client IP in each window. Counter
// failures are logged and the request is let through. X-Forwarded-For is only
// consulted when the direct peer is in trusted.
func RateLimit(counter domain.RequestCounter, limit int64, window time.Duration, trusted []netip.Prefix, logger *slog.Logger, next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(window.Round(time.Second) / time.Second))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		key := clientIP(r, trusted)
		n, err := counter.Increment(r.Context(), key, window)
		if err != nil {
			logger.WarnContext(r.Context(), "rate limiter unavailable", "client", key, "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if n > limit {
			w.Header().Set("Retry-After", retryAfter)
			h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the peer address unless that peer is a trusted proxy. Behind a
// trusted proxy it walks X-Forwarded-For from the right and returns the first hop
// that is not itself trusted.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !isTrusted(peer, trusted) {
		return host
	}

	client := peer
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		client = hop.Unmap()
		if !isTrusted(client, trusted) {
			break
		}
	}
	return client.String()
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
