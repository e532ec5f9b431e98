package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type bracketRow struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"uniqueIndex;not null"`
	Title       string `gorm:"not null"`
	Subtitle    string `gorm:"not null"`
	Public      bool   `gorm:"not null;default:false;index"`
	CreatedAt   time.Time
	Contestants []contestantRow `gorm:"foreignKey:BracketID;constraint:OnDelete:CASCADE"`
}

func (bracketRow) TableName() string { return "brackets" }

type contestantRow struct {
	ID        uint   `gorm:"primaryKey"`
	BracketID uint   `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	ImageURL  string `gorm:"not null;default:''"`
}

func (contestantRow) TableName() string { return "contestants" }

func (r bracketRow) definition() Definition {
	def := Definition{
		ID:          int64(r.ID),
		Code:        r.Code,
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Public:      r.Public,
		Contestants: make([]Contestant, 0, len(r.Contestants)),
	}
	for _, c := range r.Contestants {
		def.Contestants = append(def.Contestants, Contestant{ID: int64(c.ID), Name: c.Name, ImageURL: c.ImageURL})
	}
	return def
}

func newBracketRow(code string, b NewBracket) bracketRow {
	row := bracketRow{
		Code:        code,
		Title:       b.Title,
		Subtitle:    b.Subtitle,
		Public:      b.Public,
		Contestants: make([]contestantRow, 0, len(b.Contestants)),
	}
	for _, c := range b.Contestants {
		row.Contestants = append(row.Contestants, contestantRow{Name: c.Name, ImageURL: c.ImageURL})
	}
	return row
}

// Postgres persists definitions through gorm.
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&bracketRow{}, &contestantRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Resolve(ctx context.Context, code string) (Definition, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Definition{}, ErrNotFound
	}
	var row bracketRow
	err = p.db.WithContext(ctx).
		Preload("Contestants", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Where("code = ?", code).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Definition{}, ErrNotFound
	}
	if err != nil {
		return Definition{}, fmt.Errorf("query bracket: %w", err)
	}
	return row.definition(), nil
}

func (p *Postgres) Create(ctx context.Context, b NewBracket) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	var code string
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = allocateCode(ctx, b.Code, func(ctx context.Context, c string) (bool, error) {
			return pgCodeUnique(tx, c)
		})
		if err != nil {
			return err
		}
		row := newBracketRow(code, b)
		return tx.Create(&row).Error
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

func pgCodeUnique(tx *gorm.DB, code string) (bool, error) {
	var n int64
	if err := tx.Model(&bracketRow{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return n == 0, nil
}

func (p *Postgres) IsCodeUnique(ctx context.Context, code string) (bool, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return false, err
	}
	return pgCodeUnique(p.db.WithContext(ctx), code)
}

func (p *Postgres) ListPublic(ctx context.Context) ([]Summary, error) {
	var rows []bracketRow
	err := p.db.WithContext(ctx).
		Where("public = ?", true).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query public brackets: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summary{Code: r.Code, Title: r.Title, Subtitle: r.Subtitle})
	}
	return out, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
