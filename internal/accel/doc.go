// Package accel talks to the Sobel accelerator in the FPGA fabric.
//
// The HPS reaches the fabric through the Lightweight HPS-to-FPGA bridge, a
// 2 MiB window of physical address space starting at 0xFF200000. Two PIO
// cores inside that window form the whole interface:
//
//	BridgeBase + 0x50000  pixel_in   32-bit, written by the HPS
//	BridgeBase + 0x40000  pixel_out   8-bit, read by the HPS
//
// Open maps the window from /dev/mem and hands back a Session that owns the
// mapping. Only one Session may be live per process.
//
// # Protocol
//
// Each request is one SampleWindow, three vertically adjacent bytes packed
// into the low 24 bits of a word by PackWindow. The accelerator is assumed to
// settle between the register store and the following load, so the exchange
// is strict ping-pong:
//
//	Write(PackWindow(w))
//	v, _ := Read()
//
// There is no ready bit and no timeout. A second Write before the Read, or a
// Read with nothing outstanding, returns ErrProtocol.
//
// # Testing Without Hardware
//
// Mock records every register access and flags pairing violations.
// Emulator reproduces the accelerator's answer in software from the last
// three windows it was sent, so the offload path can run end to end on any
// machine.
//
// # Error Handling
//
//   - ErrHardware: the device could not be opened or mapped (fatal for a run)
//   - ErrNotConfigured: Write or Read on a session that is not open
//   - ErrProtocol: the ping-pong contract was broken
package accel
