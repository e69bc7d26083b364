package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSectionResetsQuestion(t *testing.T) {
	n := NewNavigator(mixedExam())

	for _, q := range []int{0, 1} {
		require.NoError(t, n.SelectSection(0))
		require.NoError(t, n.SelectQuestion(q))
		require.NoError(t, n.SelectSection(1))

		s, cur := n.Position()
		assert.Equal(t, 1, s)
		assert.Zero(t, cur)
	}

	require.NoError(t, n.SelectQuestion(1))
	require.NoError(t, n.SelectSection(1))
	_, cur := n.Position()
	assert.Zero(t, cur, "reselecting the same section also resets")
}

func TestSelectOutOfRange(t *testing.T) {
	n := NewNavigator(mixedExam())

	assert.ErrorIs(t, n.SelectSection(2), ErrOutOfRange)
	assert.ErrorIs(t, n.SelectSection(-1), ErrOutOfRange)
	assert.ErrorIs(t, n.SelectQuestion(2), ErrOutOfRange)

	s, q := n.Position()
	assert.Zero(t, s)
	assert.Zero(t, q)
}

func TestAdvanceStopsAtSectionEnd(t *testing.T) {
	n := NewNavigator(mixedExam())

	assert.Equal(t, Advanced, n.Advance())
	assert.Equal(t, AtSectionEnd, n.Advance())
	assert.Equal(t, AtSectionEnd, n.Advance())

	s, q := n.Position()
	assert.Equal(t, 0, s, "advance never wraps into the next section")
	assert.Equal(t, 1, q)

	cur, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Pick many", cur.Text)
}
