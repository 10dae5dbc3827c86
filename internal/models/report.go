package models

import (
	"time"
)

type Report struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	ReportType   string     `gorm:"size:20;not null;index" json:"report_type"` // red-flag | intervention
	Status       string     `gorm:"size:30;not null;default:'pending';index" json:"status"`
	Location     string     `gorm:"size:255;not null" json:"location"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	DateReported time.Time  `json:"date_reported"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User          User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Evidence      []Evidence      `gorm:"foreignKey:ReportID" json:"evidence"`
	StatusHistory []StatusHistory `gorm:"foreignKey:ReportID" json:"status_history"`
}

func (Report) TableName() string {
	return "reports"
}

// StatusHistory is the append-only audit trail of status changes for a report.
// Rows are never updated; Report.Status is only ever written together with a
// new StatusHistory row in the same transaction.
type StatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uint      `gorm:"not null;index" json:"report_id"`
	Status    string    `gorm:"size:30;not null" json:"status"`
	Note      string    `gorm:"type:text" json:"note"`
	ChangedBy uint      `gorm:"not null;index" json:"changed_by"`
	CreatedAt time.Time `json:"created_at"`

	// Filled by the repository from a join on users; not a column.
	ChangedByName string `gorm:"->;-:migration" json:"changed_by_name"`

	Report  Report `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
	Changer User   `gorm:"foreignKey:ChangedBy" json:"-"`
}

func (StatusHistory) TableName() string {
	return "status_history"
}

type Evidence struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uint      `gorm:"not null;index" json:"report_id"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	FilePath  string    `gorm:"size:512;not null" json:"file_path"` // /uploads path or remote URL
	FileType  string    `gorm:"size:10;not null" json:"file_type"`  // image | video
	CreatedAt time.Time `json:"created_at"`

	Report Report `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Evidence) TableName() string {
	return "evidence"
}
