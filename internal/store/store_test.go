package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pizzaBracket(code string, public bool) NewBracket {
	b := NewBracket{
		Title:    "Pizza",
		Subtitle: "Best topping",
		Public:   public,
		Code:     code,
	}
	for i := range BracketSize {
		b.Contestants = append(b.Contestants, Contestant{
			Name:     fmt.Sprintf("Topping %d", i+1),
			ImageURL: fmt.Sprintf("/data/images/%d.webp", i+1),
		})
	}
	return b
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "config", "bracket.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestStore_CreateAndResolve(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			code, err := s.Create(ctx, pizzaBracket("", true))
			require.NoError(t, err)
			assert.Len(t, strings.Split(code, "-"), 3, "generated code should be adjective-color-animal")

			def, err := s.Resolve(ctx, code)
			require.NoError(t, err)
			assert.Equal(t, code, def.Code)
			assert.Equal(t, "Pizza", def.Title)
			assert.Equal(t, "Best topping", def.Subtitle)
			require.Len(t, def.Contestants, BracketSize)
			assert.Equal(t, "Topping 1", def.Contestants[0].Name)
			assert.Equal(t, "/data/images/16.webp", def.Contestants[15].ImageURL)
		})
	}
}

func TestStore_ResolveIsCaseInsensitive(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Create(ctx, pizzaBracket("Friday-Pizza", false))
			require.NoError(t, err)

			def, err := s.Resolve(ctx, "  FRIDAY-pizza ")
			require.NoError(t, err)
			assert.Equal(t, "friday-pizza", def.Code)
		})
	}
}

func TestStore_ResolveUnknownCode(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Resolve(context.Background(), "no-such-code")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Resolve(context.Background(), "!!")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_CustomCodeCollision(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Create(ctx, pizzaBracket("taken", false))
			require.NoError(t, err)

			unique, err := s.IsCodeUnique(ctx, "TAKEN")
			require.NoError(t, err)
			assert.False(t, unique)

			_, err = s.Create(ctx, pizzaBracket("taken", false))
			assert.ErrorIs(t, err, ErrCodeTaken)

			unique, err = s.IsCodeUnique(ctx, "free")
			require.NoError(t, err)
			assert.True(t, unique)
		})
	}
}

func TestStore_ListPublic(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Create(ctx, pizzaBracket("hidden", false))
			require.NoError(t, err)
			_, err = s.Create(ctx, pizzaBracket("shown", true))
			require.NoError(t, err)

			list, err := s.ListPublic(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "shown", list[0].Code)
		})
	}
}

func TestNewBracket_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(b *NewBracket)
	}{
		{"missing title", func(b *NewBracket) { b.Title = "  " }},
		{"missing subtitle", func(b *NewBracket) { b.Subtitle = "" }},
		{"too few contestants", func(b *NewBracket) { b.Contestants = b.Contestants[:15] }},
		{"blank contestant", func(b *NewBracket) { b.Contestants[3].Name = " " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := pizzaBracket("", false)
			tc.mutate(&b)
			assert.ErrorIs(t, b.Validate(), ErrInvalidBracket)
		})
	}

	b := pizzaBracket("bad code!", false)
	assert.ErrorIs(t, b.Validate(), ErrInvalidCode)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mongo", "")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestBracketRow_Definition(t *testing.T) {
	row := newBracketRow("gold-otter", pizzaBracket("", true))
	row.ID = 7
	for i := range row.Contestants {
		row.Contestants[i].ID = uint(i + 100)
	}

	def := row.definition()
	assert.Equal(t, int64(7), def.ID)
	assert.Equal(t, "gold-otter", def.Code)
	assert.True(t, def.Public)
	require.Len(t, def.Contestants, BracketSize)
	assert.Equal(t, int64(100), def.Contestants[0].ID)
	assert.Equal(t, "Topping 1", def.Contestants[0].Name)
}
