package importer

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skinvault/skinfolio/internal/domain"
)

// ErrImportInFlight is returned when an import is started while another one
// is still running. The second invocation is a no-op.
var ErrImportInFlight = errors.New("an import is already in flight")

// TransactionCreator is the collaborator that validates and persists one
// transaction. Only its success or failure outcome is consumed here.
type TransactionCreator interface {
	Create(ctx context.Context, req domain.TransactionRequest) (domain.Transaction, error)
}

// RowError records one rejected row so the user can fix and re-import just
// the failed lines.
type RowError struct {
	LineNo  int    `json:"line_no"`
	Message string `json:"message"`
}

// ImportSummary is the aggregate outcome of one import attempt. Total and
// Imported are reported even when Failed is non-empty.
type ImportSummary struct {
	Total    int        `json:"total"`
	Imported int        `json:"imported"`
	Failed   []RowError `json:"failed,omitempty"`
}

// Importer runs the bulk import pipeline: parse, then submit rows in file
// order, one awaited submission at a time. A failed row is recorded and the
// batch continues; partial failure is the expected steady state for
// hand-edited files, not an exceptional condition.
type Importer struct {
	creator  TransactionCreator
	defaults Defaults
	logger   *zap.Logger
	running  atomic.Bool
}

// New creates an importer with the given named defaults.
func New(creator TransactionCreator, defaults Defaults, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{creator: creator, defaults: defaults, logger: logger}
}

// Import parses the raw text and submits every row to the creation
// collaborator. Header problems fail the whole attempt before any row is
// processed; row problems are collected in the summary.
func (im *Importer) Import(ctx context.Context, text string) (ImportSummary, error) {
	if !im.running.CompareAndSwap(false, true) {
		return ImportSummary{}, ErrImportInFlight
	}
	defer im.running.Store(false)

	rows, err := ParseTable(text, im.defaults)
	if err != nil {
		return ImportSummary{}, err
	}

	summary := ImportSummary{Total: len(rows)}
	for _, row := range rows {
		req, err := im.buildRequest(row)
		if err == nil {
			_, err = im.creator.Create(ctx, req)
		}
		if err != nil {
			summary.Failed = append(summary.Failed, RowError{LineNo: row.LineNo, Message: err.Error()})
			im.logger.Debug("import row rejected",
				zap.Int("line", row.LineNo),
				zap.String("skin", row.SkinID),
				zap.Error(err))
			continue
		}
		summary.Imported++
	}

	im.logger.Info("import finished",
		zap.Int("total", summary.Total),
		zap.Int("imported", summary.Imported),
		zap.Int("failed", len(summary.Failed)))
	return summary, nil
}

// buildRequest coerces a parsed row to the write schema, rejecting NaN and
// non-integral cells before any submission is attempted.
func (im *Importer) buildRequest(row ImportRow) (domain.TransactionRequest, error) {
	if row.SkinID == "" {
		return domain.TransactionRequest{}, errors.New("skinId is empty")
	}
	kind, err := domain.ParseKind(row.Type)
	if err != nil {
		return domain.TransactionRequest{}, err
	}
	if !isFinite(row.Quantity) {
		return domain.TransactionRequest{}, errors.New("quantity is not a number")
	}
	if row.Quantity != math.Trunc(row.Quantity) {
		return domain.TransactionRequest{}, fmt.Errorf("quantity %v is not a whole number", row.Quantity)
	}
	if !isFinite(row.UnitPrice) {
		return domain.TransactionRequest{}, errors.New("unitPrice is not a number")
	}
	if !isFinite(row.CommissionPercent) {
		return domain.TransactionRequest{}, errors.New("commissionPercent is not a number")
	}

	req := domain.TransactionRequest{
		SkinID:            row.SkinID,
		Kind:              kind,
		Quantity:          int64(row.Quantity),
		UnitPrice:         decimal.NewFromFloat(row.UnitPrice),
		CommissionPercent: decimal.NewFromFloat(row.CommissionPercent),
		ExecutedAt:        row.ExecutedAt,
		Currency:          im.defaults.Currency,
	}
	if err := req.Validate(); err != nil {
		return domain.TransactionRequest{}, err
	}
	return req, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
