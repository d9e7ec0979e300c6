// Package server is the local single-page review desk.
package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dyike/CortexReview/internal/desk"
	"github.com/dyike/CortexReview/internal/imageload"
	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/internal/playbook"
)

type HTTPServer struct {
	engine *gin.Engine
	addr   string
	srv    *http.Server
}

// NewHTTPServer wires the desk routes onto a gin engine.
func NewHTTPServer(addr string, debug bool, ctrl *desk.Controller, loader *imageload.Loader, pb *playbook.Playbook) (*HTTPServer, error) {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tmpl)

	h := &deskHandler{ctrl: ctrl, loader: loader, playbook: pb}
	setupRoutes(engine, h)

	return &HTTPServer{engine: engine, addr: addr}, nil
}

// Handler exposes the engine, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infof("review desk listening on http://%s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Log.Info("review desk shutting down")
	return s.srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
