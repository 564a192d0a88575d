package postgres

import (
	"context"
	"time"
)

func (p *PostgresClient) InsertAlert(ctx context.Context, record *AlertRecord) error {
	return p.DB.WithContext(ctx).Create(record).Error
}

// FindRecentAlerts returns the latest fired alerts, newest first.
func (p *PostgresClient) FindRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	var records []AlertRecord
	err := p.DB.WithContext(ctx).
		Order("fired_at DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *PostgresClient) FindAlertsBySymbol(ctx context.Context, symbol string, limit int) ([]AlertRecord, error) {
	var records []AlertRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("fired_at DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *PostgresClient) DeleteOldAlerts(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("fired_at < ?", before).
		Delete(&AlertRecord{}).Error
}
