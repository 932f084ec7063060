package accel

import "errors"

// Lightweight bridge layout on the Cyclone V SoC.
const (
	DefaultDevice = "/dev/mem"

	BridgeBase = 0xFF200000
	BridgeSpan = 0x200000

	PixelInOffset  = 0x50000
	PixelOutOffset = 0x40000
)

// WindowSize is the number of samples carried by one request.
const WindowSize = 3

var (
	ErrHardware      = errors.New("accel: hardware unavailable")
	ErrNotConfigured = errors.New("accel: transport not configured")
	ErrProtocol      = errors.New("accel: request/response out of order")
)

// Transport is a synchronous request/response channel to the accelerator.
// Every Write must be followed by exactly one Read before the next Write.
type Transport interface {
	Write(word uint32) error
	Read() (byte, error)
	Close() error
}

// Window holds the samples above, at and below one position.
type Window [WindowSize]byte

// PackWindow packs w most significant byte first: (w[0]<<16)|(w[1]<<8)|w[2].
func PackWindow(w Window) uint32 {
	var word uint32
	for _, b := range w {
		word <<= 8
		word |= uint32(b)
	}
	return word
}

// UnpackWindow is the inverse of PackWindow. The top byte of word is ignored.
func UnpackWindow(word uint32) Window {
	return Window{byte(word >> 16), byte(word >> 8), byte(word)}
}
