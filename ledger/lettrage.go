package ledger

// DefaultLettrageWidth is the default ceiling on reconciliation code
// length: three letters cover 18278 codes, far beyond what one fiscal
// period produces.
const DefaultLettrageWidth = 3

// Sequencer hands out strictly increasing reconciliation (lettrage)
// codes in bijective base 26: A..Z, AA..ZZ, AAA and so on up to the
// configured letter width.
type Sequencer struct {
	counter int
	max     int
	width   int
}

// NewSequencer creates a sequencer capped at codes of the given letter
// width. A width below one falls back to the default.
func NewSequencer(width int) *Sequencer {
	if width < 1 {
		width = DefaultLettrageWidth
	}
	max := 0
	for i, pow := 0, 1; i < width; i++ {
		pow *= 26
		max += pow
	}
	return &Sequencer{max: max, width: width}
}

// Next returns the next reconciliation code, or a LettrageExhaustedError
// once the code space is spent.
func (s *Sequencer) Next() (string, error) {
	if s.counter >= s.max {
		return "", NewLettrageExhaustedError(s.width)
	}
	code := lettrageCode(s.counter)
	s.counter++
	return code, nil
}

// lettrageCode converts a zero-based counter to bijective base 26:
// 0 -> A, 25 -> Z, 26 -> AA, 701 -> ZZ, 702 -> AAA.
func lettrageCode(n int) string {
	var buf [8]byte
	i := len(buf)
	n++
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}
