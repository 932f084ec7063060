//go:build unix

package accel

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// mapWindow opens the device with O_SYNC so the mapping is uncached.
func mapWindow(cfg Config) (int, []byte, error) {
	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return -1, nil, fmt.Errorf("%w: failed to open %s: %w", ErrHardware, cfg.Device, err)
	}

	mem, err := unix.Mmap(fd, cfg.Base, cfg.Span, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("%w: failed to map 0x%X+0x%X: %w", ErrHardware, cfg.Base, cfg.Span, err)
	}
	return fd, mem, nil
}

func unmapWindow(fd int, mem []byte) error {
	var errs []error
	if err := unix.Munmap(mem); err != nil {
		errs = append(errs, fmt.Errorf("failed to unmap window: %w", err))
	}
	if err := unix.Close(fd); err != nil {
		errs = append(errs, fmt.Errorf("failed to close device: %w", err))
	}
	return errors.Join(errs...)
}
