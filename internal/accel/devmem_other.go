//go:build !unix

package accel

import "fmt"

func mapWindow(cfg Config) (int, []byte, error) {
	return -1, nil, fmt.Errorf("%w: mapping %s is not supported on this platform", ErrHardware, cfg.Device)
}

func unmapWindow(int, []byte) error {
	return nil
}
