package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup or delete targets a record that does
// not exist.
var ErrNotFound = errors.New("storage: not found")

// Storage abstracts persistence for the bill history log and its derived
// snapshots. The bill log is append-only: the engine only ever appends,
// queries and deletes whole records.
type Storage interface {
	// Bill history
	AppendBill(ctx context.Context, rec BillRecord) error
	ListBills(ctx context.Context) ([]BillRecord, error)                  // chronological
	ListRecentBills(ctx context.Context, n int) ([]BillRecord, error)     // most recent first
	GetBill(ctx context.Context, id string) (*BillRecord, error)
	DeleteBill(ctx context.Context, id string) error // ErrNotFound when unknown
	ClearBills(ctx context.Context) error

	// Derived snapshots
	GetForecastSnapshot(ctx context.Context) (*ForecastSnapshot, error)
	SaveForecastSnapshot(ctx context.Context, snap ForecastSnapshot) error
	GetDashboardSnapshot(ctx context.Context) (*DashboardSnapshot, error)
	SaveDashboardSnapshot(ctx context.Context, snap DashboardSnapshot) error

	// Chat transcript (trimmed to ChatHistoryLimit on append)
	AppendChatMessage(ctx context.Context, msg ChatMessage) error
	ListChatMessages(ctx context.Context, limit int) ([]ChatMessage, error) // chronological
	ClearChatMessages(ctx context.Context) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Email notification config
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, cfg EmailConfig) error

	// Scheduled jobs & multi-instance locking
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases any resources (no-op for in-memory).
	Close() error
}
