package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.design/x/clipboard"
)

func TestWriteAfterFailedInitIsAccessError(t *testing.T) {
	s := &System{initErr: ErrUnavailable}
	err := s.WriteText("hello")

	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, "text", accessErr.Op)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestWritesUseFormat(t *testing.T) {
	var formats []clipboard.Format
	s := &System{write: func(f clipboard.Format, b []byte) <-chan struct{} {
		formats = append(formats, f)
		return make(chan struct{})
	}}
	require.NoError(t, s.WriteText("hi"))
	require.NoError(t, s.WriteImage([]byte{0x89, 'P', 'N', 'G'}))
	assert.Equal(t, []clipboard.Format{clipboard.FmtText, clipboard.FmtImage}, formats)
}

func TestRejectedAndPanickingWrites(t *testing.T) {
	s := &System{write: func(clipboard.Format, []byte) <-chan struct{} { return nil }}
	var accessErr *AccessError
	assert.ErrorAs(t, s.WriteText("x"), &accessErr)

	s = &System{write: func(clipboard.Format, []byte) <-chan struct{} { panic(errors.New("held by another process")) }}
	assert.ErrorAs(t, s.WriteImage(nil), &accessErr)
}
