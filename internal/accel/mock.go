package accel

import "fmt"

// Op identifies a register access recorded by Mock.
type Op int

const (
	OpWrite Op = iota
	OpRead
)

func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// Call is one recorded access.
type Call struct {
	Op    Op
	Word  uint32 // request word, for OpWrite
	Value byte   // response byte, for OpRead
}

// Mock is an in-memory Transport that records every access and enforces
// strict write/read pairing.
type Mock struct {
	// Respond computes the reply to a request. Nil replies with the middle sample.
	Respond func(word uint32) byte

	// FailOn makes the n-th Write (1-based) fail with ErrHardware. Zero disables it.
	FailOn int

	calls      []Call
	accepted   []uint32
	reads      int
	pending    bool
	last       uint32
	violations int
	closed     bool
}

var _ Transport = (*Mock)(nil)

// Write records a request.
func (m *Mock) Write(word uint32) error {
	if m.closed {
		return ErrNotConfigured
	}
	m.calls = append(m.calls, Call{Op: OpWrite, Word: word})
	if m.pending {
		m.violations++
		return fmt.Errorf("%w: write %d issued before the previous response was read", ErrProtocol, len(m.accepted)+1)
	}
	if m.FailOn > 0 && len(m.accepted)+1 == m.FailOn {
		return fmt.Errorf("%w: injected failure on write %d", ErrHardware, m.FailOn)
	}
	m.accepted = append(m.accepted, word)
	m.pending = true
	m.last = word
	return nil
}

// Read records a response.
func (m *Mock) Read() (byte, error) {
	if m.closed {
		return 0, ErrNotConfigured
	}
	if !m.pending {
		m.violations++
		m.calls = append(m.calls, Call{Op: OpRead})
		return 0, fmt.Errorf("%w: read issued with no request outstanding", ErrProtocol)
	}
	m.pending = false
	m.reads++

	var v byte
	if m.Respond != nil {
		v = m.Respond(m.last)
	} else {
		v = UnpackWindow(m.last)[1]
	}
	m.calls = append(m.calls, Call{Op: OpRead, Value: v})
	return v, nil
}

// Close marks the mock closed. Later accesses return ErrNotConfigured.
func (m *Mock) Close() error {
	m.closed = true
	return nil
}

// Calls returns every recorded access in order.
func (m *Mock) Calls() []Call {
	return append([]Call(nil), m.calls...)
}

// Writes returns the accepted request words in order.
func (m *Mock) Writes() []uint32 {
	return append([]uint32(nil), m.accepted...)
}

// Reads returns how many responses were delivered.
func (m *Mock) Reads() int {
	return m.reads
}

// Violations returns how many accesses broke the pairing rule.
func (m *Mock) Violations() int {
	return m.violations
}

// Balanced reports whether every write was immediately followed by its read
// and nothing is outstanding.
func (m *Mock) Balanced() bool {
	if m.violations > 0 || m.pending || len(m.calls)%2 != 0 {
		return false
	}
	for i, c := range m.calls {
		want := OpWrite
		if i%2 == 1 {
			want = OpRead
		}
		if c.Op != want {
			return false
		}
	}
	return true
}
