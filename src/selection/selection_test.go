package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-capture-ocr/src/screenshot"
)

func pt(x, y int) screenshot.Point { return screenshot.Point{X: x, Y: y} }

func TestDragUpLeftNormalizes(t *testing.T) {
	var tr Tracker
	require.NoError(t, tr.Begin(pt(100, 100)))
	r, err := tr.Update(pt(50, 30))
	require.NoError(t, err)
	assert.Equal(t, screenshot.Region{X: 50, Y: 30, Width: 50, Height: 70}, r)

	final, err := tr.End()
	require.NoError(t, err)
	assert.Equal(t, r, final)
	assert.Equal(t, Idle, tr.State())
}

func TestBeginIsZeroSized(t *testing.T) {
	var tr Tracker
	require.NoError(t, tr.Begin(pt(7, 9)))
	assert.True(t, tr.Dragging())
	assert.Equal(t, screenshot.Region{X: 7, Y: 9}, tr.Rect())

	final, err := tr.End()
	require.NoError(t, err)
	assert.True(t, final.Empty())
}

func TestNormalizeIsSymmetric(t *testing.T) {
	corners := [][2]screenshot.Point{
		{pt(0, 0), pt(10, 20)},
		{pt(-5, 40), pt(15, -3)},
		{pt(3, 3), pt(3, 3)},
		{pt(100, 0), pt(0, 100)},
	}
	for _, c := range corners {
		a, b := Normalize(c[0], c[1]), Normalize(c[1], c[0])
		assert.Equal(t, a, b)
		assert.GreaterOrEqual(t, a.Width, 0)
		assert.GreaterOrEqual(t, a.Height, 0)
	}
}

func TestInvalidTransitions(t *testing.T) {
	var tr Tracker

	_, err := tr.Update(pt(1, 1))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = tr.End()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, tr.Begin(pt(0, 0)))
	assert.ErrorIs(t, tr.Begin(pt(1, 1)), ErrInvalidTransition)
	assert.Equal(t, Dragging, tr.State())
}

func TestResetDropsDrag(t *testing.T) {
	var tr Tracker
	require.NoError(t, tr.Begin(pt(10, 10)))
	_, err := tr.Update(pt(20, 20))
	require.NoError(t, err)

	tr.Reset()
	assert.Equal(t, Idle, tr.State())
	assert.Equal(t, screenshot.Region{}, tr.Rect())
	require.NoError(t, tr.Begin(pt(1, 1)))
}
