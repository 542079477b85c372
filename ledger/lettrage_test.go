package ledger

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSequencerFirstCodes(t *testing.T) {
	s := NewSequencer(DefaultLettrageWidth)
	want := []string{
		"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
		"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
		"AA",
	}
	for i, w := range want {
		code, err := s.Next()
		assert.NoError(t, err)
		assert.Equal(t, w, code, "code %d", i)
	}
}

func TestSequencerWrapsAlphabet(t *testing.T) {
	assert.Equal(t, "Z", lettrageCode(25))
	assert.Equal(t, "AA", lettrageCode(26))
	assert.Equal(t, "AZ", lettrageCode(51))
	assert.Equal(t, "BA", lettrageCode(52))
	assert.Equal(t, "ZZ", lettrageCode(701))
	assert.Equal(t, "AAA", lettrageCode(702))
}

func TestSequencerExhaustion(t *testing.T) {
	s := NewSequencer(1)
	for i := 0; i < 26; i++ {
		_, err := s.Next()
		assert.NoError(t, err)
	}
	_, err := s.Next()
	var exhausted *LettrageExhaustedError
	assert.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, exhausted.Width)
}
