package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
)

// Record mirrors one ERP sales document together with its standing at the authority.
type Record struct {
	ID      snowflake.ID           `gorm:"primaryKey" json:"id"`
	Kind    etadomain.DocumentKind `gorm:"type:text;not null;uniqueIndex:idx_records_kind_name" json:"kind"`
	Name    string                 `gorm:"type:text;not null;uniqueIndex:idx_records_kind_name" json:"name"`
	Company string                 `gorm:"type:text;not null;index" json:"company"`

	PostedAt time.Time      `gorm:"column:posted_at;not null" json:"posted_at"`
	Payload  datatypes.JSON `gorm:"type:json;not null" json:"payload"`

	Signature    string                   `gorm:"type:text" json:"signature,omitempty"`
	ETAStatus    submission.DocumentState `gorm:"column:eta_status;type:text;not null;index" json:"eta_status"`
	ETAUUID      string                   `gorm:"column:eta_uuid;type:text" json:"eta_uuid,omitempty"`
	HashKey      string                   `gorm:"column:eta_hash_key;type:text" json:"eta_hash_key,omitempty"`
	LongID       string                   `gorm:"column:eta_long_id;type:text" json:"eta_long_id,omitempty"`
	SubmissionID string                   `gorm:"column:eta_submission_id;type:text" json:"eta_submission_id,omitempty"`
	LastError    string                   `gorm:"column:eta_last_error;type:text" json:"eta_last_error,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Record) TableName() string { return "records" }

// Editable reports whether the ERP may still replace the payload.
func (r *Record) Editable() bool {
	switch r.ETAStatus {
	case submission.StateSubmitted, submission.StateValid, submission.StateCancelled:
		return false
	default:
		return true
	}
}

// ETAUpdate is a partial write of the authority fields. Nil pointers are left untouched.
type ETAUpdate struct {
	Status       submission.DocumentState
	UUID         *string
	HashKey      *string
	LongID       *string
	SubmissionID *string
	LastError    *string
}

// ListFilter selects records for background jobs and the signer.
type ListFilter struct {
	Kind       etadomain.DocumentKind
	Company    string
	Statuses   []submission.DocumentState
	Signed     *bool
	// PostedFrom keeps records posted at or after the instant.
	PostedFrom *time.Time
	Limit      int
}
