package catalog

import "time"

// ScanSummaryModel はスキャンレコード1件の要約行です。
type ScanSummaryModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	SourceFilename string    `gorm:"size:255;not null"`
	DateTime       string    `gorm:"size:64;not null;default:''"`
	Camera         string    `gorm:"size:255;not null;default:''"`
	CreatedAt      time.Time `gorm:"not null;index"`

	Logos []LogoHitModel `gorm:"foreignKey:ScanID;references:ID;constraint:OnDelete:CASCADE"`
}

func (ScanSummaryModel) TableName() string {
	return "scan_summaries"
}

// LogoHitModel はレコード内で検出された1つのロゴです。
type LogoHitModel struct {
	ID         uint    `gorm:"primaryKey"`
	ScanID     string  `gorm:"size:36;not null;index"`
	Position   int     `gorm:"not null"`
	Label      string  `gorm:"size:255;not null;index"`
	Confidence float64 `gorm:"not null"`
}

func (LogoHitModel) TableName() string {
	return "logo_hits"
}
