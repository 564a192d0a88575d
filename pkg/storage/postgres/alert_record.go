package postgres

import "time"

// AlertRecord represents one fired spike alert stored in the audit trail.
type AlertRecord struct {
	ID uint `gorm:"primaryKey"`

	Symbol   string `gorm:"type:text;not null;index:idx_alert_symbol"`
	Exchange string `gorm:"type:text;not null"`

	Direction    string  `gorm:"type:varchar(10);not null;index:idx_alert_direction"`
	VolumeRatio  float64 `gorm:"type:numeric;not null"`
	Delta        float64 `gorm:"type:numeric;not null"`
	DeltaPercent float64 `gorm:"type:numeric;not null"`

	Message string `gorm:"type:text;not null"`

	FiredAt    time.Time `gorm:"not null;index:idx_alert_fired_at"`
	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (AlertRecord) TableName() string {
	return "alert_record"
}
