package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
)

var (
	ErrNotFound  = errors.New("log_not_found")
	ErrInvalidID = errors.New("invalid_id")
	ErrNoNames   = errors.New("no_documents")
)

// Log records one submission call and the verdict for each document in it.
type Log struct {
	ID            snowflake.ID           `gorm:"primaryKey" json:"id"`
	Kind          etadomain.DocumentKind `gorm:"type:text;not null" json:"kind"`
	Company       string                 `gorm:"type:text;not null;index" json:"company"`
	Connector     string                 `gorm:"type:text;not null" json:"connector"`
	CorrelationID string                 `gorm:"column:correlation_id;type:text" json:"correlation_id,omitempty"`
	Status        submission.Status      `gorm:"type:text;not null" json:"status"`
	StatusCode    int                    `gorm:"column:status_code" json:"status_code,omitempty"`
	SubmissionID  string                 `gorm:"column:submission_id;type:text;index" json:"submission_id,omitempty"`
	Accepted      int                    `gorm:"not null;default:0" json:"accepted"`
	Rejected      int                    `gorm:"not null;default:0" json:"rejected"`
	Summary       string                 `gorm:"type:text" json:"summary,omitempty"`
	RawError      string                 `gorm:"column:raw_error;type:text" json:"raw_error,omitempty"`

	Documents []LogDocument `gorm:"foreignKey:LogID" json:"documents"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Log) TableName() string { return "eta_logs" }

type LogDocument struct {
	ID        snowflake.ID             `gorm:"primaryKey" json:"id"`
	LogID     snowflake.ID             `gorm:"column:log_id;not null;index" json:"log_id"`
	Name      string                   `gorm:"type:text;not null" json:"name"`
	Accepted  bool                     `gorm:"not null;default:false" json:"accepted"`
	State     submission.DocumentState `gorm:"type:text;not null" json:"state"`
	UUID      string                   `gorm:"column:uuid;type:text" json:"uuid,omitempty"`
	LongID    string                   `gorm:"column:long_id;type:text" json:"long_id,omitempty"`
	HashKey   string                   `gorm:"column:hash_key;type:text" json:"hash_key,omitempty"`
	ErrorText string                   `gorm:"column:error_text;type:text" json:"error,omitempty"`
	CreatedAt time.Time                `gorm:"not null" json:"created_at"`
}

func (LogDocument) TableName() string { return "eta_log_documents" }

// StartRequest opens a log before the batch goes out.
type StartRequest struct {
	Kind          etadomain.DocumentKind
	Company       string
	Connector     string
	CorrelationID string
	Names         []string
}
