// Package portfolio joins the transaction ledger with remote market data
// into the view models consumed by the presentation layer.
package portfolio

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skinvault/skinfolio/internal/clients"
	"github.com/skinvault/skinfolio/internal/domain"
)

// TransactionReader supplies the authoritative transaction collection.
type TransactionReader interface {
	List(ctx context.Context) ([]domain.Transaction, error)
	ListBySkin(ctx context.Context, skinID string) ([]domain.Transaction, error)
}

// Service computes portfolio view models. It keeps an explicit quote cache
// keyed by skin id so a quote outage degrades to stale prices instead of an
// empty view; keys absent from the latest collection are evicted.
type Service struct {
	store  TransactionReader
	quotes clients.QuoteProvider
	logger *zap.Logger

	mu         sync.Mutex
	quoteCache map[string]domain.SkinQuote
}

// NewService creates a portfolio service.
func NewService(store TransactionReader, quotes clients.QuoteProvider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		quotes:     quotes,
		logger:     logger,
		quoteCache: make(map[string]domain.SkinQuote),
	}
}

// Holdings rebuilds every position from its full transaction history and
// joins the latest quotes. Only positions with open quantity appear.
func (s *Service) Holdings(ctx context.Context) ([]domain.Holding, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}

	var skinIDs []string
	bySkin := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		if _, seen := bySkin[tx.SkinID]; !seen {
			skinIDs = append(skinIDs, tx.SkinID)
		}
		bySkin[tx.SkinID] = append(bySkin[tx.SkinID], tx)
	}

	quotes := s.refreshQuotes(ctx, skinIDs)

	holdings := make([]domain.Holding, 0, len(skinIDs))
	for _, skinID := range skinIDs {
		snapshot := domain.ComputeLedger(bySkin[skinID])
		if snapshot.OpenQuantity == 0 {
			continue
		}

		quote, hasQuote := quotes[skinID]
		h := domain.Holding{
			SkinID:        skinID,
			Name:          skinID,
			Quantity:      snapshot.OpenQuantity,
			AvgEntryPrice: snapshot.AvgEntryPrice,
			RealizedPnl:   snapshot.RealizedPnl,
		}
		if hasQuote {
			h.Name = quote.Name
			h.CurrentPrice = quote.Price
			h.Change7dPercent = quote.Change7dPercent
			h.Clue = quote.Clue
			h.LineValue = quote.Price.Mul(decimal.NewFromInt(snapshot.OpenQuantity))
			if snapshot.AvgEntryPrice != nil {
				h.UnrealizedPnl = quote.Price.Sub(*snapshot.AvgEntryPrice).Mul(decimal.NewFromInt(snapshot.OpenQuantity))
			}
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// Snapshot rebuilds the ledger of one position from its full history.
func (s *Service) Snapshot(ctx context.Context, skinID string) (domain.LedgerSnapshot, error) {
	txs, err := s.store.ListBySkin(ctx, skinID)
	if err != nil {
		return domain.LedgerSnapshot{}, errors.Wrapf(err, "list transactions for skin %s", skinID)
	}
	snapshot := domain.ComputeLedger(txs)
	snapshot.SkinID = skinID
	return snapshot, nil
}

// Transactions returns the full transaction collection as view rows, with
// skin names joined from the quote cache.
func (s *Service) Transactions(ctx context.Context) ([]domain.TransactionRow, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]domain.TransactionRow, 0, len(txs))
	for _, tx := range txs {
		row := domain.TransactionRow{Transaction: tx, Name: tx.SkinID}
		if quote, ok := s.quoteCache[tx.SkinID]; ok && quote.Name != "" {
			row.Name = quote.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// refreshQuotes fetches quotes for the current skin set. On success the
// cache is replaced and keys outside the set are evicted; on failure the
// stale cache entries for the requested skins are served.
func (s *Service) refreshQuotes(ctx context.Context, skinIDs []string) map[string]domain.SkinQuote {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh, err := s.quotes.Quotes(ctx, skinIDs)
	if err != nil {
		s.logger.Warn("quote refresh failed, serving cached quotes", zap.Error(err))
		cached := make(map[string]domain.SkinQuote, len(skinIDs))
		for _, id := range skinIDs {
			if q, ok := s.quoteCache[id]; ok {
				cached[id] = q
			}
		}
		return cached
	}

	next := make(map[string]domain.SkinQuote, len(skinIDs))
	for _, id := range skinIDs {
		if q, ok := fresh[id]; ok {
			next[id] = q
		} else if q, ok := s.quoteCache[id]; ok {
			next[id] = q
		}
	}
	s.quoteCache = next
	return next
}
