package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/yurifrl/faturas/pkg/config"
	"github.com/yurifrl/faturas/pkg/document"
	"github.com/yurifrl/faturas/pkg/export"
	"github.com/yurifrl/faturas/pkg/metrics"
	"github.com/yurifrl/faturas/pkg/parser"
)

const (
	maxUploadSize = 32 << 20

	// DefaultCacheSize is how many processed statements stay downloadable.
	DefaultCacheSize = 128
)

// Server handles statement uploads over HTTP.
type Server struct {
	config    *config.Config
	logger    *log.Logger
	mux       *http.ServeMux
	parser    *parser.Parser
	recorder  *metrics.Recorder
	openBytes func([]byte) (document.Document, error)
	results   *resultCache
}

type Option func(*Server)

// WithCacheSize bounds the processed statements kept for download. The oldest
// upload is evicted first.
func WithCacheSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.results = newResultCache(size)
		}
	}
}

// WithDocumentReader replaces the PDF reader used for uploads.
func WithDocumentReader(open func([]byte) (document.Document, error)) Option {
	return func(s *Server) {
		s.openBytes = open
	}
}

// New creates a new HTTP server. recorder may be nil.
func New(cfg *config.Config, logger *log.Logger, prs *parser.Parser, recorder *metrics.Recorder, opts ...Option) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		parser:   prs,
		recorder: recorder,
		results:  newResultCache(DefaultCacheSize),
		openBytes: func(data []byte) (document.Document, error) {
			return document.OpenBytes(data)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/process", s.withLogging(s.handleProcess))
	s.mux.HandleFunc("/api/files/", s.withLogging(s.handleFiles))
	s.mux.HandleFunc("/api/issuers", s.withLogging(s.handleIssuers))
	if s.recorder != nil {
		s.mux.Handle("/metrics", s.recorder.Handler())
	}
}

// Transaction is the JSON form of an extracted row.
type Transaction struct {
	Date         string `json:"date"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
	Installments string `json:"installments"`
	Card         string `json:"card"`
	Type         string `json:"type"`
}

type storedResult struct {
	result *parser.Result
	year   int
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read file", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read file", err)
		return
	}

	year := s.config.Year
	if v := r.FormValue("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil || year < 0 {
			s.respondError(w, r, http.StatusBadRequest, "invalid year", err)
			return
		}
	}

	result, err := s.extract(data, r.FormValue("issuer"))
	switch {
	case errors.Is(err, parser.ErrUnrecognizedIssuer):
		s.respondError(w, r, http.StatusUnprocessableEntity, "unsupported document", err)
		return
	case errors.Is(err, parser.ErrUnknownIssuer):
		s.respondError(w, r, http.StatusBadRequest, "unknown issuer", err)
		return
	case err != nil:
		s.respondError(w, r, http.StatusBadRequest, "failed to process file", err)
		return
	case result.Empty():
		s.respondError(w, r, http.StatusUnprocessableEntity, "no transactions found", nil)
		return
	}

	base := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	filename := fmt.Sprintf("%s-%s.csv", base, uuid.NewString()[:8])
	s.results.put(filename, storedResult{result: result, year: year})

	rows := export.Rows(result.Transactions, export.Options{Year: year})
	txs := make([]Transaction, len(rows))
	for i, row := range rows {
		txs[i] = Transaction(row)
	}

	s.logger.Info("processed upload", "file", header.Filename, "issuer", result.Issuer.Name, "transactions", len(txs))

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"issuer": result.Issuer.Name,
		"file":   filename,
		"data":   txs,
		"stats":  result.Stats,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) extract(data []byte, issuerName string) (*parser.Result, error) {
	doc, err := s.openBytes(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if issuerName == "" {
		return s.parser.Process(doc)
	}
	issuer, err := s.parser.Registry().Lookup(issuerName)
	if err != nil {
		return nil, err
	}
	return s.parser.Extract(doc, issuer)
}

// handleFiles serves the CSV of a previously processed statement.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filename == "" {
		s.respondError(w, r, http.StatusBadRequest, "filename required", nil)
		return
	}

	stored, ok := s.results.get(filename)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "file not found", nil)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, stored.result.Transactions, export.Options{Year: stored.year}); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to build csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

func (s *Server) handleIssuers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"issuers": s.parser.Registry().Names(),
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// resultCache keeps the most recent results in insertion order.
type resultCache struct {
	mu    sync.Mutex
	size  int
	order []string
	items map[string]storedResult
}

func newResultCache(size int) *resultCache {
	return &resultCache{size: size, items: make(map[string]storedResult, size)}
}

func (c *resultCache) put(key string, value storedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		c.order = append(c.order, key)
	}
	c.items[key] = value
	for len(c.order) > c.size {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *resultCache) get(key string) (storedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

// --- helpers ---

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
