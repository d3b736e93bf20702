// Package studio serves a diagram over a JSON API so an editor front end
// can drive the store, the connection resolver and the route editor.
package studio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ridoystarlord/erdkit/resolver"
	"github.com/ridoystarlord/erdkit/routeedit"
	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
	"github.com/ridoystarlord/erdkit/typeoracle"
)

// ErrNoPendingDecision is returned by the conflict endpoints when no
// connection is waiting for a decision.
var ErrNoPendingDecision = errors.New("no pending decision")

// ErrNoSaver is returned by the save endpoint when the server was built
// without somewhere to save to.
var ErrNoSaver = errors.New("saving is not configured")

// Server owns one diagram. Requests are serialized by mu, so the store,
// resolver and editor only ever see one interaction at a time.
type Server struct {
	mu       sync.Mutex
	store    *schema.Store
	resolver *resolver.Resolver
	router   *router.Router
	editor   *routeedit.Editor
	style    router.Style
	mode     router.Mode
	save     func(schema.Diagram) error
	newID    func() string
	logger   *zap.Logger
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithIDs replaces the id generator for tables, columns and relationships.
func WithIDs(fn func() string) Option {
	return func(s *Server) { s.newID = fn }
}

func WithRouting(style router.Style, mode router.Mode) Option {
	return func(s *Server) { s.style, s.mode = style, mode }
}

func WithMetrics(m router.Metrics) Option {
	return func(s *Server) { s.router = router.New(m) }
}

// WithSaver sets where POST /api/save writes the diagram.
func WithSaver(fn func(schema.Diagram) error) Option {
	return func(s *Server) { s.save = fn }
}

func New(store *schema.Store, oracle typeoracle.Oracle, opts ...Option) *Server {
	s := &Server{
		store:  store,
		router: router.New(router.DefaultMetrics()),
		style:  router.Orthogonal,
		mode:   router.ColumnLevel,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = resolver.New(oracle, store.Engine(), resolver.WithLogger(s.logger), resolver.WithIDs(s.newID))
	s.editor = routeedit.New(s.router, s.style, s.mode, routeedit.WithLogger(s.logger))
	store.Subscribe(func(g schema.Graph) {
		s.logger.Debug("snapshot committed",
			zap.Int("tables", len(g.Tables())),
			zap.Int("relationships", len(g.Relationships())))
	})
	return s
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(engine.Group("/api"))
	return engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("studio listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down studio")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
