// model.go this code defines the data model for the application
package datastore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkallio/photoguard-go/internal/moderation"
)

// PaymentStatus is the payment state of an entry. It is owned by the external
// payment collaborator and only read here.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// EntryMetadata is the open decision/audit map stored on an entry. Writers
// append under new keys or to lists under existing keys; values are never
// destructively overwritten.
type EntryMetadata map[string]any

// Value implements driver.Valuer, serializing the map as JSON text.
func (m EntryMetadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling entry metadata: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *EntryMetadata) Scan(value any) error {
	if value == nil {
		*m = EntryMetadata{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported entry metadata column type %T", value)
	}

	if len(data) == 0 {
		*m = EntryMetadata{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// AppendTo appends a record to the list stored under key, creating the list
// if needed.
func (m EntryMetadata) AppendTo(key string, record any) {
	list, _ := m[key].([]any)
	m[key] = append(list, record)
}

// Entry represents a single contest photo submission and its moderation and
// payment state.
type Entry struct {
	ID       uint `gorm:"primaryKey"`
	OwnerID  uint `gorm:"index;not null"`
	Filename string
	FileSize int64
	MimeType string

	ModerationStatus moderation.Status `gorm:"index;type:varchar(20)"`
	ModerationScore  float64
	PaymentStatus    PaymentStatus `gorm:"type:varchar(20)"`

	// CreditGiven is true iff exactly one credit currently attributable to
	// this entry has been added to the owner's balance and not yet reversed.
	CreditGiven bool

	ModeratedAt      *time.Time
	ModeratedBy      string
	ModerationReason string

	Metadata EntryMetadata `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is the partial submitter view relevant to credit reconciliation.
type User struct {
	ID          uint `gorm:"primaryKey"`
	DisplayName string

	// PhotoCredits is the user's credit balance, never negative.
	PhotoCredits int `gorm:"not null;default:0"`

	// CreditNotes is the append-only human-readable credit ledger, one
	// timestamped line per credit event.
	CreditNotes string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppendCreditNote appends a timestamped line to the user's credit ledger.
func (u *User) AppendCreditNote(now time.Time, note string) {
	line := fmt.Sprintf("%s %s", now.UTC().Format(time.RFC3339), note)
	if u.CreditNotes == "" {
		u.CreditNotes = line
		return
	}
	u.CreditNotes += "\n" + line
}
