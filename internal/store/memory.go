package store

import (
	"context"
	"slices"
	"sync"
)

// Memory keeps definitions in process memory. Used by tests and the
// "memory" driver.
type Memory struct {
	mu          sync.RWMutex
	byCode      map[string]Definition
	order       []string
	nextID      int64
	nextEntrant int64
}

func NewMemory() *Memory {
	return &Memory{byCode: make(map[string]Definition)}
}

func (m *Memory) Resolve(ctx context.Context, code string) (Definition, error) {
	if err := ctx.Err(); err != nil {
		return Definition{}, err
	}
	code, err := NormalizeCode(code)
	if err != nil {
		return Definition{}, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.byCode[code]
	if !ok {
		return Definition{}, ErrNotFound
	}
	def.Contestants = slices.Clone(def.Contestants)
	return def, nil
}

func (m *Memory) Create(ctx context.Context, b NewBracket) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	code, err := allocateCode(ctx, b.Code, m.uniqueLocked)
	if err != nil {
		return "", err
	}

	m.nextID++
	def := Definition{
		ID:          m.nextID,
		Code:        code,
		Title:       b.Title,
		Subtitle:    b.Subtitle,
		Public:      b.Public,
		Contestants: make([]Contestant, len(b.Contestants)),
	}
	for i, c := range b.Contestants {
		m.nextEntrant++
		def.Contestants[i] = Contestant{ID: m.nextEntrant, Name: c.Name, ImageURL: c.ImageURL}
	}
	m.byCode[code] = def
	m.order = append(m.order, code)
	return code, nil
}

func (m *Memory) uniqueLocked(_ context.Context, code string) (bool, error) {
	_, taken := m.byCode[code]
	return !taken, nil
}

func (m *Memory) IsCodeUnique(ctx context.Context, code string) (bool, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uniqueLocked(ctx, code)
}

// ListPublic returns public brackets, newest first.
func (m *Memory) ListPublic(ctx context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		def := m.byCode[m.order[i]]
		if !def.Public {
			continue
		}
		out = append(out, Summary{Code: def.Code, Title: def.Title, Subtitle: def.Subtitle})
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
