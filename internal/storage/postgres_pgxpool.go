package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPoolStorage is a pgxpool-backed Storage used by the worker, where
// advisory locks and pool metrics matter more than ORM convenience.
type PostgresPoolStorage struct {
	pool *pgxpool.Pool
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/powertracker?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresPoolStorage{pool: pool}, nil
}

func (s *PostgresPoolStorage) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresPoolStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Stat exposes pool statistics for metrics export.
func (s *PostgresPoolStorage) Stat() *pgxpool.Stat {
	return s.pool.Stat()
}

// Bill history

const billColumns = `id, previous_reading, current_reading, units_consumed,
	energy_charges, fixed_charges, taxes, total_bill, breakdown, created_at`

func scanBill(row pgx.Row) (*BillRecord, error) {
	var rec BillRecord
	err := row.Scan(&rec.ID, &rec.PreviousReading, &rec.CurrentReading,
		&rec.UnitsConsumed, &rec.EnergyCharges, &rec.FixedCharges,
		&rec.Taxes, &rec.TotalBill, &rec.Breakdown, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresPoolStorage) AppendBill(ctx context.Context, rec BillRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bills (`+billColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.PreviousReading, rec.CurrentReading, rec.UnitsConsumed,
		rec.EnergyCharges, rec.FixedCharges, rec.Taxes, rec.TotalBill,
		rec.Breakdown, rec.CreatedAt)
	return err
}

func (s *PostgresPoolStorage) listBills(ctx context.Context, query string, args ...any) ([]BillRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BillRecord
	for rows.Next() {
		rec, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) ListBills(ctx context.Context) ([]BillRecord, error) {
	return s.listBills(ctx, `SELECT `+billColumns+` FROM bills ORDER BY created_at ASC`)
}

func (s *PostgresPoolStorage) ListRecentBills(ctx context.Context, n int) ([]BillRecord, error) {
	if n <= 0 {
		return s.listBills(ctx, `SELECT `+billColumns+` FROM bills ORDER BY created_at DESC`)
	}
	return s.listBills(ctx, `SELECT `+billColumns+` FROM bills ORDER BY created_at DESC LIMIT $1`, n)
}

func (s *PostgresPoolStorage) GetBill(ctx context.Context, id string) (*BillRecord, error) {
	rec, err := scanBill(s.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *PostgresPoolStorage) DeleteBill(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bills WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresPoolStorage) ClearBills(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM bills`)
	return err
}

// Snapshots

func (s *PostgresPoolStorage) GetForecastSnapshot(ctx context.Context) (*ForecastSnapshot, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, payload, generated_at FROM forecast_snapshots ORDER BY generated_at DESC LIMIT 1`)
	var snap ForecastSnapshot
	if err := row.Scan(&snap.ID, &snap.Payload, &snap.GeneratedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *PostgresPoolStorage) SaveForecastSnapshot(ctx context.Context, snap ForecastSnapshot) error {
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now().UTC()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM forecast_snapshots`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO forecast_snapshots (payload, generated_at) VALUES ($1,$2)`,
		snap.Payload, snap.GeneratedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresPoolStorage) GetDashboardSnapshot(ctx context.Context) (*DashboardSnapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, current_usage, current_bill, ai_prediction, savings_potential, updated_at
		FROM dashboard_snapshots WHERE id=$1`, DashboardSnapshotID)
	var snap DashboardSnapshot
	err := row.Scan(&snap.ID, &snap.CurrentUsage, &snap.CurrentBill,
		&snap.AIPrediction, &snap.SavingsPotential, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *PostgresPoolStorage) SaveDashboardSnapshot(ctx context.Context, snap DashboardSnapshot) error {
	if snap.ID == "" {
		snap.ID = DashboardSnapshotID
	}
	snap.UpdatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dashboard_snapshots (id, current_usage, current_bill, ai_prediction, savings_potential, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			current_usage=EXCLUDED.current_usage,
			current_bill=EXCLUDED.current_bill,
			ai_prediction=EXCLUDED.ai_prediction,
			savings_potential=EXCLUDED.savings_potential,
			updated_at=EXCLUDED.updated_at`,
		snap.ID, snap.CurrentUsage, snap.CurrentBill, snap.AIPrediction,
		snap.SavingsPotential, snap.UpdatedAt)
	return err
}

// Chat transcript

func (s *PostgresPoolStorage) AppendChatMessage(ctx context.Context, msg ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, role, content, created_at) VALUES ($1,$2,$3,$4)`,
		msg.ID, msg.Role, msg.Content, msg.CreatedAt); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		DELETE FROM chat_messages WHERE id NOT IN (
			SELECT id FROM chat_messages ORDER BY created_at DESC LIMIT $1
		)`, ChatHistoryLimit)
	return err
}

func (s *PostgresPoolStorage) ListChatMessages(ctx context.Context, limit int) ([]ChatMessage, error) {
	q := `SELECT id, role, content, created_at FROM chat_messages ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *PostgresPoolStorage) ClearChatMessages(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chat_messages`)
	return err
}

// Settings

func (s *PostgresPoolStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *PostgresPoolStorage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1,$2,$3)
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		key, value, time.Now().UTC())
	return err
}

// Email config

func (s *PostgresPoolStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, provider, host, port, username, password, from_address, from_name,
			api_key, encryption, enabled, created_at, updated_at
		FROM email_config LIMIT 1`)
	var cfg EmailConfig
	err := row.Scan(&cfg.ID, &cfg.Provider, &cfg.Host, &cfg.Port, &cfg.Username,
		&cfg.Password, &cfg.FromAddress, &cfg.FromName, &cfg.APIKey,
		&cfg.Encryption, &cfg.Enabled, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *PostgresPoolStorage) SaveEmailConfig(ctx context.Context, cfg EmailConfig) error {
	if cfg.ID == "" {
		cfg.ID = "default"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_config (id, provider, host, port, username, password,
			from_address, from_name, api_key, encryption, enabled, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			provider=EXCLUDED.provider, host=EXCLUDED.host, port=EXCLUDED.port,
			username=EXCLUDED.username, password=EXCLUDED.password,
			from_address=EXCLUDED.from_address, from_name=EXCLUDED.from_name,
			api_key=EXCLUDED.api_key, encryption=EXCLUDED.encryption,
			enabled=EXCLUDED.enabled, updated_at=EXCLUDED.updated_at`,
		cfg.ID, cfg.Provider, cfg.Host, cfg.Port, cfg.Username, cfg.Password,
		cfg.FromAddress, cfg.FromName, cfg.APIKey, cfg.Encryption, cfg.Enabled,
		time.Now().UTC(), time.Now().UTC())
	return err
}

// Scheduled jobs & locking

func (s *PostgresPoolStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok)
	return ok, err
}

func (s *PostgresPoolStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key).Scan(&ok)
	return ok, err
}

func (s *PostgresPoolStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduled_jobs (name, last_run_at, last_duration_ms, last_success, last_error)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (name) DO UPDATE SET
			last_run_at=EXCLUDED.last_run_at,
			last_duration_ms=EXCLUDED.last_duration_ms,
			last_success=EXCLUDED.last_success,
			last_error=EXCLUDED.last_error`,
		name, started, dur.Milliseconds(), status, errMsg)
	return err
}
