package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/audit"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/scoring"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

type Deps struct {
	Matches *scoring.Service
	// Audit is optional; without it the audit route answers 404.
	Audit *audit.Store
	// RateLimit is requests per minute per caller. Zero disables limiting.
	RateLimit int
}

// Server is the scorer and official HTTP API.
type Server struct {
	deps   Deps
	idem   *IdempotencyGuard
	log    zerolog.Logger
	router chi.Router
}

func New(d Deps) *Server {
	s := &Server{
		deps: d,
		idem: NewIdempotencyGuard(),
		log:  telemetry.WithComponent("http"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLog(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.deps.RateLimit > 0 {
			r.Use(rateLimit(s.deps.RateLimit, time.Minute))
		}
		r.Use(withIdentity)
		r.Use(s.idem.Middleware)

		r.Get("/matches", s.listMatches)
		r.Post("/matches", s.createMatch)

		r.Route("/matches/{id}", func(r chi.Router) {
			r.Get("/", s.getView)
			r.Get("/state", s.getState)
			r.Get("/audit", s.getAudit)

			r.Post("/start", s.start)
			r.Post("/balls", s.ball)
			r.Post("/wickets", s.wicket)
			r.Post("/undo", s.undo)
			r.Patch("/balls/{ts}", s.editBall)

			r.Post("/bowler", s.selectBowler)
			r.Post("/bowler/replace", s.replaceBowler)
			r.Post("/batter", s.selectBatter)
			r.Post("/swap", s.swap)
			r.Post("/retire", s.retire)
			r.Post("/correct", s.correct)

			r.Post("/declare", s.declare)
			r.Post("/conclude", s.conclude)
			r.Post("/next-innings", s.nextInnings)
			r.Post("/follow-on", s.followOn)
			r.Post("/last-hour", s.lastHour)

			r.Patch("/metadata", s.metadata)
			r.Post("/timer/pause", s.pause)
			r.Post("/timer/resume", s.resume)
			r.Post("/lock", s.claimLock)
			r.Delete("/lock", s.releaseLock)
		})
	})
	return r
}

// ListenAndServe runs the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", addr).Msg("scorer api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
