// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/biswap-org/curve-launchpad/internal/storage"
	"github.com/biswap-org/curve-launchpad/internal/storage/models"
)

// gormLogger adapts zap to gorm's logger.Interface.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}
	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// postgresStorage implements the Storage interface.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStorage connects to postgres, retrying with exponential backoff so a
// database that comes up a moment after the service does not fail the boot.
func NewStorage(ctx context.Context, dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	db, err := backoff.Retry(ctx, func() (*gorm.DB, error) {
		return openGorm(postgres.Open(dsn), zapLogger)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{db: db, logger: zapLogger}, nil
}

// NewStorageWithDialector builds a Storage over an arbitrary gorm dialector.
// Tests use this to run the same code against an in-memory sqlite database.
func NewStorageWithDialector(dialector gorm.Dialector, zapLogger *zap.Logger) (storage.Storage, error) {
	db, err := openGorm(dialector, zapLogger)
	if err != nil {
		return nil, err
	}
	return &postgresStorage{db: db, logger: zapLogger}, nil
}

func openGorm(dialector gorm.Dialector, zapLogger *zap.Logger) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
}

// RunMigrations applies the schema via GORM AutoMigrate.
func (p *postgresStorage) RunMigrations() error {
	if err := p.db.AutoMigrate(
		&models.TradeReceipt{},
		&models.CurveSnapshot{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (p *postgresStorage) SaveReceipt(ctx context.Context, receipt *models.TradeReceipt) error {
	if err := p.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return fmt.Errorf("failed to save trade receipt: %w", err)
	}
	return nil
}

func (p *postgresStorage) GetReceipt(ctx context.Context, receiptID string) (*models.TradeReceipt, error) {
	var receipt models.TradeReceipt
	if err := p.db.WithContext(ctx).Where("receipt_id = ?", receiptID).First(&receipt).Error; err != nil {
		return nil, fmt.Errorf("failed to get trade receipt: %w", err)
	}
	return &receipt, nil
}

func (p *postgresStorage) ListReceipts(ctx context.Context, mint string, limit, offset int) ([]*models.TradeReceipt, error) {
	var receipts []*models.TradeReceipt
	query := p.db.WithContext(ctx).Order("executed_at desc").Limit(limit).Offset(offset)
	if mint != "" {
		query = query.Where("mint = ?", mint)
	}
	if err := query.Find(&receipts).Error; err != nil {
		return nil, fmt.Errorf("failed to list trade receipts: %w", err)
	}
	return receipts, nil
}

func (p *postgresStorage) SaveCurveSnapshot(ctx context.Context, snapshot *models.CurveSnapshot) error {
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mint"}},
		UpdateAll: true,
	}).Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to save curve snapshot: %w", err)
	}
	return nil
}

func (p *postgresStorage) GetCurveSnapshot(ctx context.Context, mint string) (*models.CurveSnapshot, error) {
	var snapshot models.CurveSnapshot
	if err := p.db.WithContext(ctx).Where("mint = ?", mint).First(&snapshot).Error; err != nil {
		return nil, fmt.Errorf("failed to get curve snapshot: %w", err)
	}
	return &snapshot, nil
}

func (p *postgresStorage) ListCurveSnapshots(ctx context.Context, limit, offset int) ([]*models.CurveSnapshot, error) {
	var snapshots []*models.CurveSnapshot
	if err := p.db.WithContext(ctx).Order("created_at desc").Limit(limit).Offset(offset).Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to list curve snapshots: %w", err)
	}
	return snapshots, nil
}

func (p *postgresStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
