// Package archive keeps a record of finished games. Rooms themselves are
// never stored; only the outcome of a game that reached game over.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Result struct {
	RoomID     string    `json:"roomId"`
	Winner     string    `json:"winner"`
	SecretWord string    `json:"secretWord"`
	Outsiders  []string  `json:"outsiders"`
	Players    []string  `json:"players"`
	Rounds     int       `json:"rounds"`
	FinishedAt time.Time `json:"finishedAt"`
}

type Recorder interface {
	Record(ctx context.Context, r Result) error
	Recent(ctx context.Context, limit int) ([]Result, error)
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Result) error { return nil }

func (Nop) Recent(context.Context, int) ([]Result, error) { return []Result{}, nil }

type gameRecord struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     string `gorm:"index;not null"`
	Winner     string `gorm:"not null"`
	SecretWord string
	Outsiders  string
	Players    string
	Rounds     int
	FinishedAt time.Time `gorm:"index"`
}

func (gameRecord) TableName() string { return "game_results" }

// List columns are comma separated; commas inside names are escaped.
const sep = ","

func toRecord(r Result) gameRecord {
	return gameRecord{
		RoomID:     r.RoomID,
		Winner:     r.Winner,
		SecretWord: r.SecretWord,
		Outsiders:  joinNames(r.Outsiders),
		Players:    joinNames(r.Players),
		Rounds:     r.Rounds,
		FinishedAt: r.FinishedAt.UTC(),
	}
}

func fromRecord(g gameRecord) Result {
	return Result{
		RoomID:     g.RoomID,
		Winner:     g.Winner,
		SecretWord: g.SecretWord,
		Outsiders:  splitNames(g.Outsiders),
		Players:    splitNames(g.Players),
		Rounds:     g.Rounds,
		FinishedAt: g.FinishedAt,
	}
}

func joinNames(names []string) string {
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = strings.ReplaceAll(n, sep, "\\u002c")
	}
	return strings.Join(escaped, sep)
}

func splitNames(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, sep)
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "\\u002c", sep)
	}
	return parts
}

type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.AutoMigrate(&gameRecord{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, r Result) error {
	rec := toRecord(r)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("record game %s: %w", r.RoomID, err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Result, error) {
	var recs []gameRecord
	err := s.db.WithContext(ctx).Order("finished_at desc").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("recent games: %w", err)
	}
	out := make([]Result, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
