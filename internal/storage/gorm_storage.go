package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var gormDialector gorm.Dialector
	if driver == "postgres" {
		gormDialector = postgres.Open(dsn)
	} else if driver == "sqlite" {
		gormDialector = sqlite.Open(dsn)
	} else {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(gormDialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return &GormStorage{db: db}, nil
}

func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.AutoMigrate(
		&BillRecord{},
		&ForecastSnapshot{},
		&DashboardSnapshot{},
		&ChatMessage{},
		&Setting{},
		&ScheduledJob{},
		&EmailConfig{},
	)
}

// Bill history

func (s *GormStorage) AppendBill(ctx context.Context, rec BillRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *GormStorage) ListBills(ctx context.Context) ([]BillRecord, error) {
	var bills []BillRecord
	result := s.db.WithContext(ctx).Order("created_at asc").Find(&bills)
	return bills, result.Error
}

func (s *GormStorage) ListRecentBills(ctx context.Context, n int) ([]BillRecord, error) {
	var bills []BillRecord
	q := s.db.WithContext(ctx).Order("created_at desc")
	if n > 0 {
		q = q.Limit(n)
	}
	result := q.Find(&bills)
	return bills, result.Error
}

func (s *GormStorage) GetBill(ctx context.Context, id string) (*BillRecord, error) {
	var rec BillRecord
	result := s.db.WithContext(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &rec, nil
}

func (s *GormStorage) DeleteBill(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&BillRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStorage) ClearBills(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&BillRecord{}).Error
}

// Snapshots

func (s *GormStorage) GetForecastSnapshot(ctx context.Context) (*ForecastSnapshot, error) {
	var snap ForecastSnapshot
	result := s.db.WithContext(ctx).Order("generated_at desc").First(&snap)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &snap, nil
}

func (s *GormStorage) SaveForecastSnapshot(ctx context.Context, snap ForecastSnapshot) error {
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now().UTC()
	}
	// Keep a single row: older snapshots are superseded, not history.
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&ForecastSnapshot{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&snap).Error
}

func (s *GormStorage) GetDashboardSnapshot(ctx context.Context) (*DashboardSnapshot, error) {
	var snap DashboardSnapshot
	result := s.db.WithContext(ctx).First(&snap, "id = ?", DashboardSnapshotID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &snap, nil
}

func (s *GormStorage) SaveDashboardSnapshot(ctx context.Context, snap DashboardSnapshot) error {
	if snap.ID == "" {
		snap.ID = DashboardSnapshotID
	}
	snap.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&snap).Error
}

// Chat transcript

func (s *GormStorage) AppendChatMessage(ctx context.Context, msg ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return err
	}
	// Trim the transcript to the retention cap.
	return s.db.WithContext(ctx).Exec(
		`DELETE FROM chat_messages WHERE id NOT IN (
			SELECT id FROM chat_messages ORDER BY created_at DESC LIMIT ?
		)`, ChatHistoryLimit).Error
}

func (s *GormStorage) ListChatMessages(ctx context.Context, limit int) ([]ChatMessage, error) {
	var msgs []ChatMessage
	q := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	// Reverse to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *GormStorage) ClearChatMessages(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&ChatMessage{}).Error
}

// Settings

func (s *GormStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var setting Setting
	result := s.db.WithContext(ctx).First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return setting.Value, nil
}

func (s *GormStorage) SetSetting(ctx context.Context, key, value string) error {
	setting := Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&setting).Error
}

// Email config

func (s *GormStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	var config EmailConfig
	result := s.db.WithContext(ctx).First(&config)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &config, nil
}

func (s *GormStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	if config.ID == "" {
		config.ID = "default"
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&config).Error
}

// Close & Ping

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Scheduled jobs & locking

func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(?)", key).Scan(&ok).Error
		return ok, err
	}
	// SQLite has no advisory locks; assume single instance.
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_advisory_unlock(?)", key).Scan(&ok).Error
		return ok, err
	}
	return true, nil
}

func (s *GormStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	job := ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&job).Error
}
