package accel

import (
	"fmt"

	"github.com/ironsheep/edgevision/internal/sobel"
)

// Emulator answers requests the way the fabric's Sobel core does, entirely
// in software. It keeps the last three windows as the columns of a 3x3
// block. The reply to a request is the inverted Sobel magnitude of that
// block, which is centred on the column before the one just sent. Until
// three windows have arrived since creation or Reset the reply is 0.
type Emulator struct {
	cols    [3]Window
	seen    int
	pending bool
	result  byte
}

var _ Transport = (*Emulator)(nil)

// NewEmulator returns an Emulator with an empty column history.
func NewEmulator() *Emulator {
	return &Emulator{}
}

func (e *Emulator) Write(word uint32) error {
	if e.pending {
		return fmt.Errorf("%w: write issued before the previous response was read", ErrProtocol)
	}
	e.cols[0], e.cols[1], e.cols[2] = e.cols[1], e.cols[2], UnpackWindow(word)
	if e.seen < len(e.cols) {
		e.seen++
	}

	e.result = 0
	if e.seen == len(e.cols) {
		var block [3][3]byte
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				block[r][c] = e.cols[c][r]
			}
		}
		e.result = sobel.Invert(sobel.Magnitude(sobel.Kernel(block)))
	}
	e.pending = true
	return nil
}

func (e *Emulator) Read() (byte, error) {
	if !e.pending {
		return 0, fmt.Errorf("%w: read issued with no request outstanding", ErrProtocol)
	}
	e.pending = false
	return e.result, nil
}

// Reset clears the column history.
func (e *Emulator) Reset() {
	*e = Emulator{}
}

func (e *Emulator) Close() error {
	return nil
}
