// Package store persists bracket definitions: the title, subtitle and
// sixteen contestants a session resolves from a short code.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// BracketSize is the only supported contestant count.
const BracketSize = 16

var (
	ErrNotFound          = errors.New("bracket not found")
	ErrCodeTaken         = errors.New("bracket code already in use")
	ErrInvalidCode       = errors.New("invalid bracket code")
	ErrInvalidBracket    = errors.New("invalid bracket")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
)

type Contestant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// Definition is an immutable, resolved bracket.
type Definition struct {
	ID          int64        `json:"id"`
	Code        string       `json:"code"`
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle"`
	Public      bool         `json:"public"`
	Contestants []Contestant `json:"contestants"`
}

type Summary struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// NewBracket is the authoring input. Code is optional; a random one is
// generated when empty.
type NewBracket struct {
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle"`
	Contestants []Contestant `json:"contestants"`
	Public      bool         `json:"public"`
	Code        string       `json:"code,omitempty"`
}

// Store is implemented by every backend.
type Store interface {
	Resolve(ctx context.Context, code string) (Definition, error)
	Create(ctx context.Context, b NewBracket) (string, error)
	IsCodeUnique(ctx context.Context, code string) (bool, error)
	ListPublic(ctx context.Context) ([]Summary, error)
	Close() error
}

// Validate trims the input in place and checks it can become a Definition.
func (b *NewBracket) Validate() error {
	b.Title = strings.TrimSpace(b.Title)
	b.Subtitle = strings.TrimSpace(b.Subtitle)
	if b.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidBracket)
	}
	if b.Subtitle == "" {
		return fmt.Errorf("%w: subtitle is required", ErrInvalidBracket)
	}
	if len(b.Contestants) != BracketSize {
		return fmt.Errorf("%w: need %d contestants, got %d", ErrInvalidBracket, BracketSize, len(b.Contestants))
	}
	for i := range b.Contestants {
		b.Contestants[i].Name = strings.TrimSpace(b.Contestants[i].Name)
		b.Contestants[i].ImageURL = strings.TrimSpace(b.Contestants[i].ImageURL)
		if b.Contestants[i].Name == "" {
			return fmt.Errorf("%w: contestant %d has no name", ErrInvalidBracket, i+1)
		}
	}
	if b.Code != "" {
		code, err := NormalizeCode(b.Code)
		if err != nil {
			return err
		}
		b.Code = code
	}
	return nil
}

// NormalizeCode lowercases and trims a code. Lookups are case-insensitive
// because codes are always stored in this form.
func NormalizeCode(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) < 3 || len(code) > 64 {
		return "", ErrInvalidCode
	}
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return "", ErrInvalidCode
		}
	}
	return code, nil
}

// Open returns the backend named by driver.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}
