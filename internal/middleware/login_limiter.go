package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"technotes-api/internal/event"
	"technotes-api/internal/logger"
	"technotes-api/pkg/apierror"
)

type eventSink interface {
	Log(name string, message string)
}

type loginWindow struct {
	start time.Time
	count int
}

// LoginLimiter caps login attempts per client IP in fixed windows. Every
// attempt counts, successful or not. State is process local.
type LoginLimiter struct {
	max    int
	window time.Duration
	sink   eventSink
	bus    event.Bus
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*loginWindow
	lastGC  time.Time
}

func NewLoginLimiter(limit int, window time.Duration, sink eventSink, bus event.Bus) *LoginLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}

	return &LoginLimiter{
		max:     limit,
		window:  window,
		sink:    sink,
		bus:     bus,
		now:     time.Now,
		clients: map[string]*loginWindow{},
	}
}

func (l *LoginLimiter) UseClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *LoginLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientIP(r)
		allowed, remaining, reset := l.take(key)

		w.Header().Set("RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(seconds(reset)))

		if !allowed {
			message := fmt.Sprintf("Too many login attempts from this IP, please try again after a %d second pause", seconds(l.window))
			if l.sink != nil {
				l.sink.Log(logger.ErrorLog, fmt.Sprintf("Too Many Requests: %s\t%s\t%s\t%s", message, r.Method, r.URL.String(), r.Header.Get("Origin")))
			}
			if l.bus != nil {
				l.bus.Publish(event.New(event.TypeLoginThrottled, "", map[string]any{"client": key}))
			}

			w.Header().Set("Retry-After", strconv.Itoa(seconds(reset)))
			WriteError(w, r, apierror.TooManyRequests(message))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// take records one attempt for key and reports whether it is within the
// limit, how many attempts remain and how long until the window resets.
func (l *LoginLimiter) take(key string) (bool, int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.gcLocked(now)

	entry, exists := l.clients[key]
	if !exists || !now.Before(entry.start.Add(l.window)) {
		entry = &loginWindow{start: now}
		l.clients[key] = entry
	}
	entry.count++

	remaining := max(l.max-entry.count, 0)
	reset := entry.start.Add(l.window).Sub(now)
	return entry.count <= l.max, remaining, reset
}

func (l *LoginLimiter) gcLocked(now time.Time) {
	if now.Sub(l.lastGC) < l.window {
		return
	}
	l.lastGC = now

	for key, entry := range l.clients {
		if !now.Before(entry.start.Add(l.window)) {
			delete(l.clients, key)
		}
	}
}

func seconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
