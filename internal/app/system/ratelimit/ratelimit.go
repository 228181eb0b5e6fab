// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
)

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use. Expired windows are dropped while counting, so no
// background goroutine is needed.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]window
	limit    int
	duration time.Duration
	now      func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// sweepAt is the map size above which Allow drops expired windows.
const sweepAt = 1024

// New creates a limiter allowing limit requests per key per duration.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.windows) >= sweepAt {
		for k, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	l.windows[key] = w
	return true
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles sign-in attempts per client address and per login.
type LoginLimiter struct {
	byIP    *Limiter
	byLogin *Limiter
}

// NewLoginLimiter allows 10 attempts per address per minute and 5 per login
// per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, loginLimit int, loginWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipLimit, ipWindow),
		byLogin: New(loginLimit, loginWindow),
	}
}

// Check records an attempt and returns a user-facing reason when it is
// refused.
func (ll *LoginLimiter) Check(r *http.Request, login string) (bool, string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Muitas tentativas de acesso. Aguarde um minuto e tente novamente."
	}
	if key := text.Fold(strings.TrimSpace(login)); key != "" {
		if !ll.byLogin.Allow(key) {
			return false, "Muitas tentativas para este usuário. Aguarde alguns minutos."
		}
	}
	return true, ""
}

// ResetLogin clears the per-login counter after a successful sign-in.
func (ll *LoginLimiter) ResetLogin(login string) {
	if key := text.Fold(strings.TrimSpace(login)); key != "" {
		ll.byLogin.Reset(key)
	}
}
