package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	idempotencyTTL     = 10 * time.Minute
	idempotencyMaxKeys = 4096
)

// stored is a completed response kept for replay.
type stored struct {
	status int
	header http.Header
	body   []byte
	at     time.Time
}

// IdempotencyGuard replays the response of a write that was already
// processed under the same (user, path, Idempotency-Key) tuple, so a
// scorer's retried tap cannot record a ball twice.
type IdempotencyGuard struct {
	mu       sync.Mutex
	seen     map[string]*stored
	order    []string
	inflight map[string]bool
	now      func() time.Time
}

func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{
		seen:     make(map[string]*stored),
		inflight: make(map[string]bool),
		now:      time.Now,
	}
}

// Key builds a dedup key from the caller, the route and the client key.
func (g *IdempotencyGuard) Key(userID, path, clientKey string) string {
	return fmt.Sprintf("%s:%s:%s", userID, path, clientKey)
}

// begin reports a stored response for key, or claims key for the caller.
// busy is true when another request holds the same key.
func (g *IdempotencyGuard) begin(key string) (prev *stored, busy bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.seen[key]; ok && g.now().Sub(s.at) < idempotencyTTL {
		return s, false
	}
	if g.inflight[key] {
		return nil, true
	}
	g.inflight[key] = true
	return nil, false
}

func (g *IdempotencyGuard) finish(key string, s *stored) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, key)
	if s == nil {
		return
	}
	if _, ok := g.seen[key]; !ok {
		g.order = append(g.order, key)
	}
	g.seen[key] = s
	for len(g.order) > idempotencyMaxKeys {
		delete(g.seen, g.order[0])
		g.order = g.order[1:]
	}
}

// Clear resets all dedup state.
func (g *IdempotencyGuard) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = make(map[string]*stored)
	g.order = nil
}

// Middleware applies the guard to requests carrying an Idempotency-Key.
// Only responses below 500 are stored; server errors may be retried.
func (g *IdempotencyGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := r.Header.Get(headerIdempotency)
		if clientKey == "" || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		key := g.Key(identity(r).ID, r.URL.Path, clientKey)

		prev, busy := g.begin(key)
		if busy {
			writeFail(w, http.StatusConflict, "in_progress", "A request with this Idempotency-Key is in progress.")
			return
		}
		if prev != nil {
			for k, v := range prev.header {
				w.Header()[k] = v
			}
			w.Header().Set("Idempotent-Replay", "true")
			w.WriteHeader(prev.status)
			_, _ = w.Write(prev.body)
			return
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		var keep *stored
		defer func() { g.finish(key, keep) }()
		next.ServeHTTP(rec, r)
		if rec.status < http.StatusInternalServerError {
			keep = &stored{status: rec.status, header: w.Header().Clone(), body: rec.buf.Bytes(), at: g.now()}
		}
	})
}

// recorder copies the response body while passing it through.
type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}
