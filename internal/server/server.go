// =============================================================================
// Manifest to Scale - HTTP Upload Server
// =============================================================================
//
// This module exposes the converter over HTTP.
//
// ROUTES:
//   POST /{slug}/upload   multipart upload, form field "file"
//                         ?config=skip_db converts even if already processed
//   GET  /manifests       recent processed manifest records
//   GET  /health          liveness probe
//   GET  /metrics         Prometheus metrics
//
// AUTHENTICATION:
//   When an API token is configured the upload and listing routes require
//   "Authorization: Bearer <token>". Health and metrics stay open.
//
// =============================================================================

package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/converter"
	"github.com/BryceStandley/ManifestToScale/internal/logging"
	"github.com/BryceStandley/ManifestToScale/internal/store"
)

// DefaultMaxUploadBytes caps uploads when no limit is configured.
const DefaultMaxUploadBytes = 32 << 20

// DefaultShutdownTimeout bounds graceful shutdown when none is configured.
const DefaultShutdownTimeout = 15 * time.Second

// Options configures a Server.
type Options struct {
	Addr string

	// Converter runs the pipeline for each upload.
	Converter *converter.Converter

	// Store backs GET /manifests. Nil answers 503.
	Store store.Store

	Logger logging.Logger

	// APIToken enables bearer auth when set.
	APIToken string

	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// Server serves the upload API.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	conv            *converter.Converter
	store           store.Store
	logger          logging.Logger
	token           string
	maxUpload       int64
	shutdownTimeout time.Duration
}

// New creates a server with all routes registered.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		Addr:            opts.Addr,
		router:          chi.NewRouter(),
		conv:            opts.Converter,
		store:           opts.Store,
		logger:          opts.Logger,
		token:           opts.APIToken,
		maxUpload:       opts.MaxUploadBytes,
		shutdownTimeout: opts.ShutdownTimeout,
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/{slug}/upload", s.handleUpload)
		r.Get("/manifests", s.handleManifests)
	})

	s.server.Handler = s.router
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on Addr and serves in the background.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}
	s.logger.Info("HTTP server listening on %s", s.ln.Addr())
	go func() {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	s.ln = nil
	return nil
}

// Run starts the server and stops it when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.logger.Info("shutting down HTTP server")
	return s.Stop()
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s %d %dB %s [%s]", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HANDLERS
// =============================================================================

// UploadResponse is the JSON body returned for every upload.
type UploadResponse struct {
	Message            string   `json:"message"`
	Error              string   `json:"error,omitempty"`
	Status             string   `json:"status"`
	ManifestDate       string   `json:"manifestDate,omitempty"`
	TotalOrders        int      `json:"totalOrders"`
	TotalCrates        int      `json:"totalCrates"`
	Company            string   `json:"company,omitempty"`
	ReceiptID          string   `json:"receiptId,omitempty"`
	Warnings           []string `json:"warnings"`
	ReceiptXMLContent  string   `json:"receiptXmlContent"`
	ShipmentXMLContent string   `json:"shipmentXmlContent"`
}

func errorResponse(msg string) UploadResponse {
	return UploadResponse{Message: "error", Error: msg, Status: string(converter.StatusError), Warnings: []string{}}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	comp, err := company.Parse(slug)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse(fmt.Sprintf("unknown company %q", slug)))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("upload too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid multipart form: "+err.Error()))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("missing file"))
		return
	}
	defer file.Close()

	fileType, err := converter.DetectFileType(header.Filename)
	if t := r.FormValue("type"); t != "" {
		fileType, err = converter.ParseFileType(t)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("failed to read upload: "+err.Error()))
		return
	}

	res := s.conv.ProcessUpload(r.Context(), converter.Request{
		Filename:  header.Filename,
		Data:      data,
		Type:      fileType,
		Company:   comp,
		SkipDedup: r.FormValue("config") == "skip_db",
	})

	writeJSON(w, statusCode(res.Status), uploadResponse(res))
}

func uploadResponse(res converter.Result) UploadResponse {
	out := UploadResponse{
		Message:            "success",
		Status:             string(res.Status),
		TotalOrders:        res.TotalOrders,
		TotalCrates:        res.TotalCrates,
		ReceiptID:          res.ReceiptID,
		Warnings:           res.Warnings,
		ReceiptXMLContent:  string(res.ReceiptXML),
		ShipmentXMLContent: string(res.ShipmentXML),
	}
	if !res.Success {
		out.Message = "error"
		out.Error = res.ErrorMessage
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if res.Company.Valid() {
		out.Company = res.Company.DisplayName()
	}
	if !res.ManifestDate.IsZero() {
		out.ManifestDate = res.ManifestDate.Format(store.DateLayout)
	}
	return out
}

func statusCode(status converter.Status) int {
	switch status {
	case converter.StatusProcessed:
		return http.StatusOK
	case converter.StatusAlreadyProcessed:
		return http.StatusConflict
	case converter.StatusInvalid, converter.StatusParseError:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) handleManifests(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "manifest store is disabled"})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list manifests: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list manifests"})
		return
	}
	if records == nil {
		records = []store.ProcessedManifest{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
