package httpapi

import (
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"
)

// windowLimiter allows at most limit hits per key in each fixed window.
// Opening sessions is limited per client address, submitting per session.
type windowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]*hitWindow
}

type hitWindow struct {
	start time.Time
	hits  int
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &windowLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*hitWindow),
	}
}

func (l *windowLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
		}
	}

	w, ok := l.windows[key]
	if !ok {
		l.windows[key] = &hitWindow{start: now, hits: 1}
		return true
	}
	if w.hits >= l.limit {
		return false
	}
	w.hits++
	return true
}

// Forget drops key, used when the session it names is closed.
func (l *windowLimiter) Forget(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}
