package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSON is a free-form object stored as a JSON text column.
type JSON map[string]any

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}

	if len(bytes) == 0 {
		*j = nil
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// AuditLog records one change with before/after snapshots.
type AuditLog struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    *string   `json:"user_id" gorm:"type:varchar(36);index"`
	Action    string    `json:"action" gorm:"type:varchar(50);not null"` // login, logout, update, create, run
	Table     string    `json:"table_name" gorm:"column:table_name;type:varchar(100);not null"`
	RecordID  *string   `json:"record_id" gorm:"type:varchar(255)"`
	OldValues JSON      `json:"old_values" gorm:"type:text"`
	NewValues JSON      `json:"new_values" gorm:"type:text"`
	IPAddress string    `json:"ip_address" gorm:"type:varchar(45)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// SystemSetting is a keyed JSON value (themes, notification switches).
type SystemSetting struct {
	Key       string    `json:"key" gorm:"column:setting_key;type:varchar(100);primaryKey"`
	Value     JSON      `json:"value" gorm:"type:text"`
	UpdatedBy *string   `json:"updated_by" gorm:"type:varchar(36)"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Broadcast struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title      string    `json:"title" gorm:"type:varchar(255);not null"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	Audience   string    `json:"audience" gorm:"type:varchar(20);not null"`
	Recipients int       `json:"recipients"`
	SentBy     string    `json:"sent_by" gorm:"type:varchar(36)"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

func (b *Broadcast) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Notification is one recipient's copy of a broadcast.
type Notification struct {
	ID          string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	BroadcastID string     `json:"broadcast_id" gorm:"type:varchar(36);index"`
	UserID      string     `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Message     string     `json:"message" gorm:"type:text"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// OperationRun is the history row of one administrative operation.
type OperationRun struct {
	ID          string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Kind        string     `json:"kind" gorm:"type:varchar(50);not null;index"`
	Status      string     `json:"status" gorm:"type:varchar(20);not null"`
	Message     string     `json:"message" gorm:"type:text"`
	Details     JSON       `json:"details" gorm:"type:text"`
	RequestedBy string     `json:"requested_by" gorm:"type:varchar(36)"`
	StartedAt   time.Time  `json:"started_at" gorm:"index"`
	FinishedAt  *time.Time `json:"finished_at"`
}

func (r *OperationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
