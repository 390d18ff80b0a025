// Package server exposes the analysis engine as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"norm-check/internal/engine"
	"norm-check/internal/model"
)

// MaxBodySize bounds request bodies, dumps included
const MaxBodySize = 64 << 20

type Server struct {
	engine *engine.Engine
	logger *zap.Logger
}

func New(e *engine.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: e, logger: logger}
}

type ddlRequest struct {
	DDL string `json:"ddl"`
}

type multiRequest struct {
	DDL    string                 `json:"ddl"`
	Tables []model.ExtractedTable `json:"tables"`
}

type errorResponse struct {
	Error      string                  `json:"error"`
	Validation *model.ValidationResult `json:"validation,omitempty"`
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/parse", s.handleParse)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/analyze/multi", s.handleAnalyzeMulti)
	mux.HandleFunc("GET /api/features", s.handleFeatures)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	resp := errorResponse{Error: err.Error()}

	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		status = http.StatusUnprocessableEntity
		resp.Validation = &ve.Result
	}
	s.writeJSON(w, status, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ddlRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	schema, err := s.engine.ParseDDL(req.DDL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ddlRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.ValidateDDL(req.DDL))
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		s.writeError(w, fmt.Errorf("read body: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.ExtractDumpTables(content))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req ddlRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.engine.AnalyzeDDL(req.DDL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyzeMulti(w http.ResponseWriter, r *http.Request) {
	var req multiRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var (
		report *model.MultiSchemaReport
		err    error
	)
	switch {
	case len(req.Tables) > 0 && req.DDL != "":
		err = errors.New(`send either "ddl" or "tables", not both`)
	case len(req.Tables) > 0:
		report, err = s.engine.AnalyzeExtracted(req.Tables)
	default:
		report, err = s.engine.AnalyzeContent("request.sql", []byte(req.DDL))
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.SupportedFeatures())
}
