// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/biswap-org/curve-launchpad/internal/storage/models"
)

// Storage persists trade receipts and curve snapshots. Receipts are
// append-only; snapshots are upserted per mint. The in-memory curve store is
// the settlement source of truth, storage is the durable record behind it.
type Storage interface {
	// Receipts
	SaveReceipt(ctx context.Context, receipt *models.TradeReceipt) error
	GetReceipt(ctx context.Context, receiptID string) (*models.TradeReceipt, error)
	ListReceipts(ctx context.Context, mint string, limit, offset int) ([]*models.TradeReceipt, error)

	// Curve snapshots
	SaveCurveSnapshot(ctx context.Context, snapshot *models.CurveSnapshot) error
	GetCurveSnapshot(ctx context.Context, mint string) (*models.CurveSnapshot, error)
	ListCurveSnapshots(ctx context.Context, limit, offset int) ([]*models.CurveSnapshot, error)

	RunMigrations() error
	Close() error
}
