package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionBank struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:200" validate:"required,max=200"`

	// Metadata
	CreatedBy uint      `json:"created_by" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:BankID;constraint:OnDelete:CASCADE"`

	// Statistics
	QuestionCount int `json:"question_count" gorm:"-"`
}

type ImportStatus string

const (
	ImportCompleted ImportStatus = "completed"
	ImportFailed    ImportStatus = "failed"
)

// ImportJob records one file import into a bank.
type ImportJob struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	BankID    uint         `json:"bank_id" gorm:"not null;index"`
	FileName  string       `json:"file_name" gorm:"not null;size:255"`
	ObjectKey *string      `json:"object_key" gorm:"size:500"` // archived source file, if stored
	Status    ImportStatus `json:"status" gorm:"not null;size:20;index"`

	TotalBlocks int `json:"total_blocks"`
	Imported    int `json:"imported"`
	Skipped     int `json:"skipped"`

	// Per-record outcomes, serialized ImportReport
	Report datatypes.JSON `json:"report" gorm:"type:jsonb"`
	Error  *string        `json:"error,omitempty" gorm:"type:text"`

	CreatedBy uint      `json:"created_by" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`

	Bank *QuestionBank `json:"-" gorm:"foreignKey:BankID;constraint:OnDelete:CASCADE"`
}
