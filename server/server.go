// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/checkpoint"
	"github.com/tarungka/ripple/engine"
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/stream"
)

// Engine is the part of *engine.Engine the server drives.
type Engine interface {
	Subscriptions(ctx context.Context) ([]engine.SubscriptionInfo, error)
	Subscribe(ctx context.Context, uri string) error
	Dispose(ctx context.Context, uri string) error
	Checkpoint(ctx context.Context) (*checkpoint.Checkpoint, error)
}

// Publisher accepts values for in-process topics.
type Publisher interface {
	Publish(topic string, value stream.Event) int
}

// Config configures the HTTP server.
type Config struct {
	Port string `koanf:"port"`
}

// Server serves the engine API.
type Server struct {
	config    Config
	engine    Engine
	publisher Publisher
	logger    zerolog.Logger
}

// New creates a server. publisher may be nil, which disables
// POST /topics/{topic}.
func New(config Config, e Engine, publisher Publisher) *Server {
	return &Server{
		config:    config,
		engine:    e,
		publisher: publisher,
		logger:    logger.GetLogger("server"),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/health"))
	router.Use(middleware.CleanPath)
	router.Use(middleware.RequestID)

	router.Mount("/subscriptions", s.subscriptionRouter())
	router.Post("/checkpoint", s.checkpoint)
	router.Post("/topics/{topic}", s.publish)
	router.Handle("/debug/vars", expvar.Handler())

	return router
}

// Run serves on the configured port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        net.JoinHostPort("", s.config.Port),
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Msgf("Running the web server on port: %s", s.config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Msg("web server stopped")
	return nil
}

func (s *Server) subscriptionRouter() chi.Router {
	router := chi.NewRouter()

	router.Get("/", s.listSubscriptions)
	router.Post("/", s.subscribe)
	router.Delete("/", s.dispose)

	return router
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	infos, err := s.engine.Subscriptions(r.Context())
	if err != nil {
		SendError(w, statusFor(err), err)
		return
	}
	if infos == nil {
		infos = []engine.SubscriptionInfo{}
	}
	SendResponse(w, true, infos, "")
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		SendError(w, http.StatusBadRequest, errors.New("missing uri"))
		return
	}
	if err := s.engine.Subscribe(r.Context(), uri); err != nil {
		SendError(w, statusFor(err), err)
		return
	}
	SendResponse(w, true, map[string]string{"uri": uri}, "")
}

func (s *Server) dispose(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		SendError(w, http.StatusBadRequest, errors.New("missing uri"))
		return
	}
	if err := s.engine.Dispose(r.Context(), uri); err != nil {
		SendError(w, statusFor(err), err)
		return
	}
	SendResponse(w, true, map[string]string{"uri": uri}, "")
}

func (s *Server) checkpoint(w http.ResponseWriter, r *http.Request) {
	cp, err := s.engine.Checkpoint(r.Context())
	if err != nil {
		SendError(w, statusFor(err), err)
		return
	}
	SendResponse(w, true, CheckpointModel{
		ID:       cp.ID,
		Sequence: cp.Sequence,
		Taken:    cp.TakenAt().UTC().Format(time.RFC3339Nano),
		Queries:  cp.URIs(),
	}, "")
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		SendError(w, http.StatusNotFound, errors.New("publishing is disabled"))
		return
	}
	topic := chi.URLParam(r, "topic")

	var value any
	if err := decodeBody(w, r, &value); err != nil {
		SendError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	n := s.publisher.Publish(topic, value)
	s.logger.Debug().Str("topic", topic).Int("subscribers", n).Msg("published over http")
	SendResponse(w, true, PublishModel{Topic: topic, Subscribers: n}, "")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownQuery), errors.Is(err, engine.ErrNotSubscribed):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrAlreadySubscribed):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEngineClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
