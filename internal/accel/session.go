package accel

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Config locates the register window.
type Config struct {
	Device    string // memory device to map, usually /dev/mem
	Base      int64  // physical base address of the window
	Span      int    // length of the window in bytes
	InOffset  int    // offset of the 32-bit input register
	OutOffset int    // offset of the 8-bit output register
}

// DefaultConfig returns the Lightweight bridge layout.
func DefaultConfig() Config {
	return Config{
		Device:    DefaultDevice,
		Base:      BridgeBase,
		Span:      BridgeSpan,
		InOffset:  PixelInOffset,
		OutOffset: PixelOutOffset,
	}
}

func (c Config) validate() error {
	if c.Device == "" {
		return fmt.Errorf("%w: no memory device configured", ErrHardware)
	}
	if c.Span <= 0 {
		return fmt.Errorf("%w: invalid window span %d", ErrHardware, c.Span)
	}
	if c.InOffset < 0 || c.InOffset%4 != 0 || c.InOffset+4 > c.Span {
		return fmt.Errorf("%w: input register offset 0x%X outside window", ErrHardware, c.InOffset)
	}
	if c.OutOffset < 0 || c.OutOffset&^3+4 > c.Span {
		return fmt.Errorf("%w: output register offset 0x%X outside window", ErrHardware, c.OutOffset)
	}
	return nil
}

// live guards the one-mapping-per-process rule.
var live atomic.Bool

// Session owns a mapped register window. It is not safe for concurrent use.
type Session struct {
	cfg     Config
	fd      int
	mem     []byte
	in      *uint32
	out     *uint32 // aligned word holding the output register
	lane    int     // byte of *out that is the register
	pending bool
}

var _ Transport = (*Session)(nil)

// Open maps the register window described by cfg.
//
// Parameters:
//   - cfg: Device path, physical base, span and register offsets. Use
//     DefaultConfig for the Lightweight bridge.
//
// Returns:
//   - *Session: The live mapping. Close it exactly once when the run ends.
//   - error: Wraps ErrHardware if the device cannot be opened, the mapping
//     fails, the layout is invalid, or another Session is already open.
//
// No retry is attempted.
func Open(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !live.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: a session is already open", ErrHardware)
	}

	fd, mem, err := mapWindow(cfg)
	if err != nil {
		live.Store(false)
		return nil, err
	}

	return &Session{
		cfg:  cfg,
		fd:   fd,
		mem:  mem,
		in:   (*uint32)(unsafe.Pointer(&mem[cfg.InOffset])),
		out:  (*uint32)(unsafe.Pointer(&mem[cfg.OutOffset&^3])),
		lane: cfg.OutOffset & 3,
	}, nil
}

// Write stores word into the input register.
func (s *Session) Write(word uint32) error {
	if s == nil || s.mem == nil {
		return ErrNotConfigured
	}
	if s.pending {
		return fmt.Errorf("%w: write issued before the previous response was read", ErrProtocol)
	}
	atomic.StoreUint32(s.in, word)
	s.pending = true
	return nil
}

// Read loads the output register. The byte is taken from an atomic load of
// the aligned word that contains it.
func (s *Session) Read() (byte, error) {
	if s == nil || s.mem == nil {
		return 0, ErrNotConfigured
	}
	if !s.pending {
		return 0, fmt.Errorf("%w: read issued with no request outstanding", ErrProtocol)
	}
	var word [4]byte
	binary.NativeEndian.PutUint32(word[:], atomic.LoadUint32(s.out))
	s.pending = false
	return word[s.lane], nil
}

// Close unmaps the window and closes the device. It is safe on a nil
// Session and on one that is already closed.
func (s *Session) Close() error {
	if s == nil || s.mem == nil {
		return nil
	}
	err := unmapWindow(s.fd, s.mem)
	s.mem, s.in, s.out = nil, nil, nil
	s.fd = -1
	s.pending = false
	live.Store(false)
	return err
}
