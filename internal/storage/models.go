package storage

import "time"

// BillRecord is a persisted bill calculation. Rows are append-only: a record
// is written once after calculation and only ever removed, never updated.
// The per-slab breakdown rides along as a JSON payload so backends do not
// need a child table for it.
type BillRecord struct {
	ID              string    `json:"id" gorm:"primaryKey;column:id"`
	PreviousReading float64   `json:"previousReading" gorm:"column:previous_reading"`
	CurrentReading  float64   `json:"currentReading" gorm:"column:current_reading"`
	UnitsConsumed   float64   `json:"unitsConsumed" gorm:"column:units_consumed"`
	EnergyCharges   float64   `json:"energyCharges" gorm:"column:energy_charges"`
	FixedCharges    float64   `json:"fixedCharges" gorm:"column:fixed_charges"`
	Taxes           float64   `json:"taxes" gorm:"column:taxes"`
	TotalBill       float64   `json:"totalBill" gorm:"column:total_bill"`
	Breakdown       []byte    `json:"-" gorm:"column:breakdown"`
	CreatedAt       time.Time `json:"timestamp" gorm:"column:created_at"`
}

// ForecastSnapshot stores the most recently computed forecast payload so
// external consumers can read it without recomputing. It is a derived cache,
// safe to drop at any time.
type ForecastSnapshot struct {
	ID          uint      `json:"-" gorm:"primaryKey;column:id"`
	Payload     []byte    `json:"payload" gorm:"column:payload"`
	GeneratedAt time.Time `json:"generated_at" gorm:"column:generated_at"`
}

// DashboardSnapshot is the single-row "current state" view kept in sync with
// the bill history: updated on every append and fully recomputed on delete.
type DashboardSnapshot struct {
	ID               string    `json:"-" gorm:"primaryKey;column:id"`
	CurrentUsage     float64   `json:"currentUsage" gorm:"column:current_usage"`
	CurrentBill      float64   `json:"currentBill" gorm:"column:current_bill"`
	AIPrediction     float64   `json:"aiPrediction" gorm:"column:ai_prediction"`
	SavingsPotential float64   `json:"savingsPotential" gorm:"column:savings_potential"`
	UpdatedAt        time.Time `json:"lastUpdated" gorm:"column:updated_at"`
}

// DashboardSnapshotID is the fixed primary key of the single dashboard row.
const DashboardSnapshotID = "main"

// ChatMessage is one entry of the chat transcript.
type ChatMessage struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id"`
	Role      string    `json:"type" gorm:"column:role"` // "user" or "bot"
	Content   string    `json:"content" gorm:"column:content"`
	CreatedAt time.Time `json:"timestamp" gorm:"column:created_at"`
}

// ChatHistoryLimit is the number of chat messages retained.
const ChatHistoryLimit = 100

// Setting is a key/value configuration row (worker interval and similar
// runtime-tunable knobs).
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// ScheduledJob records the last outcome of a background job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}

// EmailConfig holds configuration for email notifications.
type EmailConfig struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	Provider    string    `json:"provider" gorm:"column:provider"` // "smtp", "sendgrid", "gmail", "resend"
	Host        string    `json:"host,omitempty" gorm:"column:host"`
	Port        int       `json:"port,omitempty" gorm:"column:port"`
	Username    string    `json:"username,omitempty" gorm:"column:username"`
	Password    string    `json:"password,omitempty" gorm:"column:password"`
	FromAddress string    `json:"from_address" gorm:"column:from_address"`
	FromName    string    `json:"from_name" gorm:"column:from_name"`
	APIKey      string    `json:"api_key,omitempty" gorm:"column:api_key"` // For Sendgrid
	Encryption  string    `json:"encryption,omitempty" gorm:"column:encryption"` // "none", "ssl", "tls"
	Enabled     bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}
