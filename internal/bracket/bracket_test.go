package bracket

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/bracket-battle/internal/store"
)

func contestants(n int) []store.Contestant {
	out := make([]store.Contestant, n)
	for i := range out {
		out[i] = store.Contestant{ID: int64(i + 1), Name: fmt.Sprintf("C%02d", i+1)}
	}
	return out
}

func TestBuild_Layout(t *testing.T) {
	ms, err := Build(rand.New(rand.NewSource(1)), contestants(16))
	require.NoError(t, err)
	require.Len(t, ms, 15)

	seen := map[int64]bool{}
	for i, m := range ms {
		assert.Equal(t, i, m.ID)
		assert.Equal(t, Round(i), m.Round)
		if i < Leaves {
			require.NotNil(t, m.Left, "leaf %d left", i)
			require.NotNil(t, m.Right, "leaf %d right", i)
			seen[m.Left.ID] = true
			seen[m.Right.ID] = true
		} else {
			assert.Nil(t, m.Left, "node %d left", i)
			assert.Nil(t, m.Right, "node %d right", i)
		}
		assert.Nil(t, m.Winner)
	}
	assert.Len(t, seen, 16, "every contestant appears exactly once")
}

func TestBuild_RejectsWrongCount(t *testing.T) {
	for _, n := range []int{0, 8, 15, 17, 32} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			_, err := Build(rand.New(rand.NewSource(1)), contestants(n))
			assert.ErrorIs(t, err, ErrContestantCount)
		})
	}
}

func TestBuild_DeterministicWithSeededSource(t *testing.T) {
	in := contestants(16)
	a, err := Build(rand.New(rand.NewSource(42)), in)
	require.NoError(t, err)
	b, err := Build(rand.New(rand.NewSource(42)), in)
	require.NoError(t, err)

	for i := range Leaves {
		assert.Equal(t, a[i].Left.Name, b[i].Left.Name)
		assert.Equal(t, a[i].Right.Name, b[i].Right.Name)
	}
	// input order is untouched
	assert.Equal(t, "C01", in[0].Name)
	assert.Equal(t, "C16", in[15].Name)
}

func TestBuild_PairsInPermutedOrder(t *testing.T) {
	// A reverse "shuffle" makes the pairing observable.
	ms, err := Build(reverse{}, contestants(16))
	require.NoError(t, err)
	assert.Equal(t, "C16", ms[0].Left.Name)
	assert.Equal(t, "C15", ms[0].Right.Name)
	assert.Equal(t, "C02", ms[7].Left.Name)
	assert.Equal(t, "C01", ms[7].Right.Name)
}

type reverse struct{}

func (reverse) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func TestParent(t *testing.T) {
	want := map[int]int{
		0: 8, 1: 8, 2: 9, 3: 9, 4: 10, 5: 10, 6: 11, 7: 11,
		8: 12, 9: 12, 10: 13, 11: 13,
		12: 14, 13: 14,
	}
	for child, parent := range want {
		got, ok := Parent(child)
		require.True(t, ok, "node %d", child)
		assert.Equal(t, parent, got, "node %d", child)
	}
	for _, id := range []int{Final, -1, 15} {
		_, ok := Parent(id)
		assert.False(t, ok, "node %d", id)
	}
}

func TestFillsLeftAndRound(t *testing.T) {
	assert.True(t, FillsLeft(0))
	assert.False(t, FillsLeft(1))
	assert.True(t, FillsLeft(12))
	assert.False(t, FillsLeft(13))

	assert.Equal(t, 1, Round(7))
	assert.Equal(t, 2, Round(8))
	assert.Equal(t, 3, Round(13))
	assert.Equal(t, 4, Round(14))
	assert.Equal(t, 0, Round(15))
}
