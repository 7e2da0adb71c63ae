// Package web exposes the portfolio view models over HTTP as JSON.
package web

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/skinvault/skinfolio/internal/domain"
	"github.com/skinvault/skinfolio/internal/importer"
	"github.com/skinvault/skinfolio/internal/query"
	"github.com/skinvault/skinfolio/internal/storage/transactions"
)

const maxImportBodyBytes = 8 << 20

type portfolioService interface {
	Holdings(ctx context.Context) ([]domain.Holding, error)
	Transactions(ctx context.Context) ([]domain.TransactionRow, error)
	Snapshot(ctx context.Context, skinID string) (domain.LedgerSnapshot, error)
}

type transactionWriter interface {
	Create(ctx context.Context, req domain.TransactionRequest) (domain.Transaction, error)
	Delete(ctx context.Context, id string) error
}

type importRunner interface {
	Import(ctx context.Context, text string) (importer.ImportSummary, error)
}

// Server exposes the HTTP API over the portfolio service, the transaction
// store and the import pipeline.
type Server struct {
	Addr            string
	Portfolio       portfolioService
	Store           transactionWriter
	Importer        importRunner
	DefaultPageSize int
	SearchDebounce  time.Duration

	logger *zap.Logger
}

// NewServer creates a new API server instance.
func NewServer(addr string, portfolio portfolioService, store transactionWriter, imp importRunner, defaultPageSize int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPageSize < 1 {
		defaultPageSize = 20
	}
	return &Server{
		Addr:            addr,
		Portfolio:       portfolio,
		Store:           store,
		Importer:        imp,
		DefaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/holdings", s.handleHoldings)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/skins/{id}/ledger", s.handleLedger)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/ui-config", s.handleUIConfig)
	return mux
}

// handleUIConfig serves the view defaults a front-end needs to set up its
// collection sessions.
func (s *Server) handleUIConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"default_page_size":  s.DefaultPageSize,
		"search_debounce_ms": s.SearchDebounce.Milliseconds(),
	})
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.Portfolio.Holdings(r.Context())
	if err != nil {
		s.serverError(w, "load holdings", err)
		return
	}
	result := query.FilterSortPage(holdings, s.viewQuery(r), domain.HoldingComparators())
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Portfolio.Transactions(r.Context())
	if err != nil {
		s.serverError(w, "load transactions", err)
		return
	}
	result := query.FilterSortPage(rows, s.viewQuery(r), domain.TransactionRowComparators())
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := s.Store.Create(r.Context(), req)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			s.writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		s.serverError(w, "create transaction", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, transactions.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.serverError(w, "delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.Portfolio.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serverError(w, "compute ledger", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	summary, err := s.Importer.Import(r.Context(), string(body))
	if err != nil {
		var fErr *importer.FormatError
		switch {
		case errors.As(err, &fErr):
			s.writeError(w, http.StatusBadRequest, fErr.Error())
		case errors.Is(err, importer.ErrImportInFlight):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.serverError(w, "import", err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// viewQuery maps request parameters onto a ViewQuery. Out-of-range page and
// pageSize values are clamped instead of rejected.
func (s *Server) viewQuery(r *http.Request) query.ViewQuery {
	params := r.URL.Query()
	return query.ViewQuery{
		Search:   params.Get("search"),
		Filter:   params.Get("filter"),
		Sort:     query.SortKey(strings.ToLower(params.Get("sort"))),
		Page:     intParam(params.Get("page"), 1),
		PageSize: intParam(params.Get("pageSize"), s.DefaultPageSize),
	}
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return query.ClampInt(v, 1, math.MaxInt32)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) serverError(w http.ResponseWriter, action string, err error) {
	s.logger.Error(action+" failed", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal error")
}
