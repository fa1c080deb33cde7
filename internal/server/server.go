// Package server serves the PDF and video translation pipelines over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/polyglot/internal/logger"
	"codeberg.org/snonux/polyglot/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultMaxUploadMB limits request bodies when Config.MaxUploadMB is unset
const DefaultMaxUploadMB = 512

// Pipeline runs the translation flows; *pipeline.Processor implements it
type Pipeline interface {
	TranslatePDF(ctx context.Context, srcPDF, jobDir, lang string) (string, error)
	DubVideo(ctx context.Context, srcVideo, jobDir, lang string) (string, error)
}

// JobLister lists recorded jobs; *store.Store implements it
type JobLister interface {
	List(ctx context.Context, limit int) ([]store.Job, error)
}

// Config configures the web service
type Config struct {
	Address         string
	UploadDir       string
	MaxUploadMB     int
	DefaultLanguage string
	Mode            string // gin mode: debug, release or test
}

// Server is the HTTP front end
type Server struct {
	config   Config
	pipeline Pipeline
	jobs     JobLister
	hub      *Hub
	log      *logger.Logger
	engine   *gin.Engine
}

// New builds the server and its routes. jobs may be nil.
func New(config Config, p Pipeline, jobs JobLister, hub *Hub, log *logger.Logger) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if config.UploadDir == "" {
		config.UploadDir = "static/uploads"
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = DefaultMaxUploadMB
	}
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = "hi"
	}
	if hub == nil {
		hub = NewHub()
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{config: config, pipeline: p, jobs: jobs, hub: hub, log: log}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	if s.config.Mode != "" {
		gin.SetMode(s.config.Mode)
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)
	r.GET("/healthcheck", healthCheck)
	r.GET("/pdf_translate", s.page("pdf_translate.html"))
	r.POST("/pdf_translate", s.translatePDF)
	r.GET("/video_translate", s.page("video_translate.html"))
	r.POST("/video_translate", s.translateVideo)
	r.GET("/jobs", s.listJobs)
	r.GET("/progress", s.hub.Handler(s.log))

	s.engine = r
	return nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(listener)
	}()
	s.log.Info("web service listening", "address", listener.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down web service")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"client", c.ClientIP(),
		)
	}
}
