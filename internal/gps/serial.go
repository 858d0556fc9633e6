// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens the receiver's serial port, 8N1.
func OpenSerial(port string, baud int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	p, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port, err)
	}
	return p, nil
}
