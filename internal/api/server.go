// Package api serves the incident records and the verification workflow
// over HTTP.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/zulandar/incidentdesk/internal/dashboard"
	"github.com/zulandar/incidentdesk/internal/dispatch"
	"github.com/zulandar/incidentdesk/internal/reconcile"
	"github.com/zulandar/incidentdesk/internal/store"
	"github.com/zulandar/incidentdesk/internal/taxonomy"
	"github.com/zulandar/incidentdesk/internal/verify"
	"go.uber.org/zap"
)

// StartOpts holds configuration for the API server. Stores, Verify and
// Dispatch are required; the rest default.
type StartOpts struct {
	Stores       *store.Set
	Verify       *verify.Coordinator
	Dispatch     *dispatch.Coordinator
	Reporter     *dashboard.Reporter
	Auditor      *reconcile.Auditor
	Taxonomy     *taxonomy.Taxonomy
	Logger       *zap.Logger
	Port         int
	AllowOrigins []string
	Out          io.Writer
}

type server struct {
	stores   *store.Set
	verify   *verify.Coordinator
	dispatch *dispatch.Coordinator
	reporter *dashboard.Reporter
	auditor  *reconcile.Auditor
	taxonomy *taxonomy.Taxonomy
	log      *zap.Logger
}

// NewHandler builds the router wrapped in the CORS handler.
func NewHandler(opts StartOpts) (http.Handler, error) {
	if opts.Stores == nil {
		return nil, fmt.Errorf("api: stores are required")
	}
	if opts.Verify == nil || opts.Dispatch == nil {
		return nil, fmt.Errorf("api: verify and dispatch coordinators are required")
	}
	s := &server{
		stores:   opts.Stores,
		verify:   opts.Verify,
		dispatch: opts.Dispatch,
		reporter: opts.Reporter,
		auditor:  opts.Auditor,
		taxonomy: opts.Taxonomy,
		log:      opts.Logger,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.taxonomy == nil {
		s.taxonomy = taxonomy.Default()
	}
	if s.reporter == nil {
		s.reporter = dashboard.NewReporter(opts.Stores.DB, s.taxonomy, nil)
	}
	if s.auditor == nil {
		s.auditor = reconcile.NewAuditor(opts.Verify, s.log)
	}

	registerValidators()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log), errorRenderer(s.log))
	s.registerRoutes(router)

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})
	return c.Handler(router), nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	handler, err := NewHandler(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "incidentdesk API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
