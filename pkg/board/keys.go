package board

import (
	"errors"
	"io"
)

const (
	// ctrlC arrives as a plain byte once the terminal is in raw mode.
	ctrlC = 3
	esc   = 0x1b
)

// Controls is what the keyboard can change on a running tape.
type Controls interface {
	IncreaseFilter()
	DecreaseFilter()
	ToggleAudio() bool
}

// Selector opens and closes the trade detail view.
type Selector interface {
	Select(row int)
	Deselect()
}

// ReadKeys maps keystrokes from r onto c and s until r is exhausted or a
// quit key is pressed. quit is called at most once. Escape sequences such
// as arrow keys are skipped.
func ReadKeys(r io.Reader, c Controls, s Selector, quit func()) error {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		keys := buf[:n]
		for i := 0; i < len(keys); i++ {
			switch key := keys[i]; {
			case key == esc && i+1 < len(keys) && keys[i+1] == '[':
				i = skipCSI(keys, i+2)
			case key == esc:
				s.Deselect()
			case key >= '0' && key <= '9':
				s.Select(int(key - '0'))
			case key == ']':
				c.IncreaseFilter()
			case key == '[':
				c.DecreaseFilter()
			case key == 'a' || key == 'A':
				c.ToggleAudio()
			case key == 'q' || key == 'Q' || key == ctrlC:
				quit()
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// skipCSI returns the index of the final byte of a control sequence whose
// parameters start at i.
func skipCSI(keys []byte, i int) int {
	for ; i < len(keys); i++ {
		if keys[i] >= 0x40 && keys[i] <= 0x7e {
			return i
		}
	}
	return len(keys) - 1
}
