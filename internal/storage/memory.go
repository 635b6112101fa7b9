package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu        sync.RWMutex
	bills     []BillRecord
	forecast  *ForecastSnapshot
	dashboard *DashboardSnapshot
	chat      []ChatMessage
	settings  map[string]string
	email     *EmailConfig
	jobs      map[string]ScheduledJob
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		settings: make(map[string]string),
		jobs:     make(map[string]ScheduledJob),
	}
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) AppendBill(ctx context.Context, rec BillRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.bills = append(m.bills, rec)
	return nil
}

func (m *MemoryStorage) ListBills(ctx context.Context) ([]BillRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]BillRecord, len(m.bills))
	copy(out, m.bills)
	return out, nil
}

func (m *MemoryStorage) ListRecentBills(ctx context.Context, n int) ([]BillRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > len(m.bills) {
		n = len(m.bills)
	}
	out := make([]BillRecord, 0, n)
	for i := len(m.bills) - 1; i >= len(m.bills)-n; i-- {
		out = append(out, m.bills[i])
	}
	return out, nil
}

func (m *MemoryStorage) GetBill(ctx context.Context, id string) (*BillRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.bills {
		if m.bills[i].ID == id {
			cp := m.bills[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStorage) DeleteBill(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bills {
		if m.bills[i].ID == id {
			m.bills = append(m.bills[:i], m.bills[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStorage) ClearBills(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills = nil
	return nil
}

func (m *MemoryStorage) GetForecastSnapshot(ctx context.Context) (*ForecastSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forecast == nil {
		return nil, nil
	}
	cp := *m.forecast
	return &cp, nil
}

func (m *MemoryStorage) SaveForecastSnapshot(ctx context.Context, snap ForecastSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now().UTC()
	}
	m.forecast = &snap
	return nil
}

func (m *MemoryStorage) GetDashboardSnapshot(ctx context.Context) (*DashboardSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dashboard == nil {
		return nil, nil
	}
	cp := *m.dashboard
	return &cp, nil
}

func (m *MemoryStorage) SaveDashboardSnapshot(ctx context.Context, snap DashboardSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.ID == "" {
		snap.ID = DashboardSnapshotID
	}
	snap.UpdatedAt = time.Now().UTC()
	m.dashboard = &snap
	return nil
}

func (m *MemoryStorage) AppendChatMessage(ctx context.Context, msg ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.chat = append(m.chat, msg)
	if len(m.chat) > ChatHistoryLimit {
		m.chat = m.chat[len(m.chat)-ChatHistoryLimit:]
	}
	return nil
}

func (m *MemoryStorage) ListChatMessages(ctx context.Context, limit int) ([]ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.chat) {
		limit = len(m.chat)
	}
	out := make([]ChatMessage, limit)
	copy(out, m.chat[len(m.chat)-limit:])
	return out, nil
}

func (m *MemoryStorage) ClearChatMessages(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chat = nil
	return nil
}

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.email == nil {
		return nil, nil
	}
	cp := *m.email
	return &cp, nil
}

func (m *MemoryStorage) SaveEmailConfig(ctx context.Context, cfg EmailConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email = &cfg
	return nil
}

func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	// Single instance, always acquires.
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := 0
	if success {
		status = 1
	}
	m.jobs[name] = ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return nil
}
