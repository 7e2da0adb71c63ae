// Package transactions persists the transaction ledger in an append-only
// WAL. Deletes are tombstone records replayed over the log, so the full
// history stays recoverable.
package transactions

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/skinvault/skinfolio/internal/domain"
)

const (
	DefaultDir   = "./wal/transactions"
	segmentLimit = 1000
	maxSegments  = 1000

	txKeyPrefix        = "tx_"
	tombstoneKeyPrefix = "txdel_"
)

// ErrNotFound is returned when a delete targets an unknown transaction.
var ErrNotFound = errors.New("transaction not found")

// Store is a WAL-backed transaction store.
type Store struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewStore initializes a WAL-backed transaction store.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "tx_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init transaction WAL")
	}

	return &Store{wal: wal}, nil
}

// Create validates the request, assigns an id and execution time when unset,
// and appends the transaction to the log.
func (s *Store) Create(ctx context.Context, req domain.TransactionRequest) (domain.Transaction, error) {
	if s == nil || s.wal == nil {
		return domain.Transaction{}, errors.New("transaction store is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}

	if req.ExecutedAt.IsZero() {
		req.ExecutedAt = time.Now().UTC()
	}
	tx, err := domain.NewTransaction(uuid.New().String(), req)
	if err != nil {
		return domain.Transaction{}, err
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return domain.Transaction{}, errors.Wrap(err, "marshal transaction")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, txKeyPrefix+tx.ID, payload); err != nil {
		return domain.Transaction{}, errors.Wrap(err, "append transaction")
	}
	return tx, nil
}

// Delete appends a tombstone for the transaction id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.wal == nil {
		return errors.New("transaction store is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, tx := range existing {
		if tx.ID == id {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return errors.Wrap(s.wal.Write(nextIndex, tombstoneKeyPrefix+id, []byte(id)), "append tombstone")
}

// List replays the log and returns all live transactions in append order.
func (s *Store) List(ctx context.Context) ([]domain.Transaction, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("transaction store is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		order   []string
		deleted = make(map[string]bool)
		byID    = make(map[string]domain.Transaction)
	)
	current := s.wal.CurrentIndex()
	for idx := uint64(1); idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(key, txKeyPrefix):
			var tx domain.Transaction
			if err := json.Unmarshal(payload, &tx); err != nil {
				return nil, errors.Wrap(err, "decode transaction record")
			}
			if _, seen := byID[tx.ID]; !seen {
				order = append(order, tx.ID)
			}
			byID[tx.ID] = tx
		case strings.HasPrefix(key, tombstoneKeyPrefix):
			deleted[strings.TrimPrefix(key, tombstoneKeyPrefix)] = true
		}
	}

	txs := make([]domain.Transaction, 0, len(order))
	for _, id := range order {
		if deleted[id] {
			continue
		}
		txs = append(txs, byID[id])
	}
	return txs, nil
}

// ListBySkin returns the live transactions of a single position.
func (s *Store) ListBySkin(ctx context.Context, skinID string) ([]domain.Transaction, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(all))
	for _, tx := range all {
		if tx.SkinID == skinID {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("transaction store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
