package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/SecretPocketCat/chela/internal/config"
	"github.com/SecretPocketCat/chela/internal/cullmeta"
	"github.com/SecretPocketCat/chela/internal/generator"
	"github.com/SecretPocketCat/chela/internal/images"
	"github.com/SecretPocketCat/chela/internal/logging"
	"github.com/SecretPocketCat/chela/internal/previewcache"
)

const maxRequestBody = 4 << 20

type healthResponse struct {
	Uptime string `json:"uptime"`
	Status string `json:"status"`
}

type configResponse struct {
	PreviewAPIURL string `json:"previewApiUrl"`
}

type openDirRequest struct {
	Path string `json:"path"`
}

type apiServer struct {
	bind        string
	contentType string
	logger      *slog.Logger
	daemon      *Daemon
	handler     http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:        strings.TrimSpace(cfg.Paths.APIBind),
		contentType: cfg.PreviewContentType(),
		logger:      logging.NewComponentLogger(logger, "api-server"),
		daemon:      d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleHealth)
	mux.HandleFunc("/preview", srv.handlePreview)
	mux.HandleFunc("/api/dirs", srv.handleDirs)
	mux.HandleFunc("/api/cull", srv.handleCull)
	mux.HandleFunc("/api/config", srv.handleConfig)
	mux.HandleFunc("/api/status", srv.handleStatus)
	srv.handler = requestIDMiddleware(srv.logger, mux)
	return srv
}

// Handler returns the preview server's HTTP handler.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}

	// WriteTimeout stays unset: preview requests block until generation
	// finishes and end only when the client goes away.
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.server, s.listener = nil, nil
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{
		Uptime: FormatUptime(s.daemon.Uptime()),
		Status: "OK",
	})
}

func (s *apiServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "path query parameter required")
		return
	}
	logger := logging.WithContext(r.Context(), s.logger).With(logging.String(logging.FieldPreviewPath, path))

	lookup, err := s.daemon.cache.Await(r.Context(), path)
	if err != nil {
		logger.Debug("preview wait abandoned", logging.Error(err))
		return
	}

	switch lookup.State {
	case previewcache.StateReady:
	case previewcache.StateFailed:
		s.writeError(w, http.StatusInternalServerError, lookup.Reason)
		return
	default:
		if !s.daemon.isActivePreview(path) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	}

	file, err := os.Open(previewcache.Canonical(path))
	if err != nil {
		logger.Debug("preview file unavailable", logging.Error(err))
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", s.contentType)
	if info, err := file.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file); err != nil {
		logger.Debug("preview stream interrupted", logging.Error(err))
	}
}

func (s *apiServer) handleDirs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req openDirRequest
	if err := s.decode(r, &req); err != nil || strings.TrimSpace(req.Path) == "" {
		s.writeError(w, http.StatusBadRequest, "body must be {\"path\": \"<directory>\"}")
		return
	}

	ctx := r.Context()
	dir, err := s.daemon.OpenDir(ctx, strings.TrimSpace(req.Path))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrInvalidDir):
			status = http.StatusBadRequest
		case errors.Is(err, images.ErrNoImages):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, generator.ErrDispatchClosed), errors.Is(err, context.DeadlineExceeded):
			status = http.StatusServiceUnavailable
		}
		if status == http.StatusInternalServerError {
			logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "open directory failed", "open_dir_failed",
				logging.String("dir", req.Path),
				logging.Error(err),
			)
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, dir)
}

func (s *apiServer) handleCull(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var states map[string]cullmeta.State
	if err := s.decode(r, &states); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.daemon.Cull(states); err != nil {
		if errors.Is(err, ErrUnknownPreview) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	url := ""
	if addr := s.address(); addr != "" {
		url = "http://" + addr
	}
	s.writeJSON(w, http.StatusOK, configResponse{PreviewAPIURL: url})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
