package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
)

// weatherAlert is the persistence model for one stored alert. The surrogate
// key allows duplicate msg_ids: replays and reconnect backfills insert again
// instead of colliding.
type weatherAlert struct {
	ID            uint       `gorm:"column:id;primaryKey;autoIncrement"`
	MsgID         int64      `gorm:"column:msg_id;not null;index"`
	SenderID      int64      `gorm:"column:sender_id;not null"`
	Text          string     `gorm:"column:text;type:text;not null"`
	EventDateTime time.Time  `gorm:"column:event_date_time;not null"`
	Event         string     `gorm:"column:event;not null;index"`
	Location      string     `gorm:"column:location"`
	Start         *time.Time `gorm:"column:start"`
	End           *time.Time `gorm:"column:end"`
	IngestedAt    time.Time  `gorm:"column:ingested_at;not null"`
}

func (weatherAlert) TableName() string {
	return "weather_alerts"
}

// SQLiteSink stores alert records in a SQLite database via gorm.
type SQLiteSink struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSQLiteSink opens (or creates) the database at dsn and migrates the
// weather_alerts table.
func NewSQLiteSink(dsn string, logger *slog.Logger) (*SQLiteSink, error) {
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite sink: %w", err)
	}
	if err := db.AutoMigrate(&weatherAlert{}); err != nil {
		return nil, fmt.Errorf("migrate weather_alerts: %w", err)
	}
	return &SQLiteSink{db: db, logger: logger}, nil
}

// Store inserts one record as a new row.
func (s *SQLiteSink) Store(ctx context.Context, rec domain.StoredAlertRecord) error {
	row := weatherAlert{
		MsgID:         rec.MsgID,
		SenderID:      rec.SenderID,
		Text:          rec.Text,
		EventDateTime: rec.EventDateTime,
		Event:         rec.Event,
		Location:      rec.Location,
		Start:         rec.Start,
		End:           rec.End,
		IngestedAt:    rec.IngestedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert weather alert: %w", err)
	}
	s.logger.Info("alert stored", "msg_id", rec.MsgID, "event", rec.Event)
	return nil
}

// Ping checks database connectivity.
func (s *SQLiteSink) Ping(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("sqlite sink unavailable: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load returns all stored records in insertion order, mapped back to the
// domain shape. Used by tests and ad-hoc inspection.
func (s *SQLiteSink) Load(ctx context.Context) ([]domain.StoredAlertRecord, error) {
	var rows []weatherAlert
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query weather alerts: %w", err)
	}

	records := make([]domain.StoredAlertRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.StoredAlertRecord{
			MsgID:         row.MsgID,
			SenderID:      row.SenderID,
			Text:          row.Text,
			EventDateTime: row.EventDateTime,
			Event:         row.Event,
			Location:      row.Location,
			Start:         row.Start,
			End:           row.End,
			IngestedAt:    row.IngestedAt,
		})
	}
	return records, nil
}
