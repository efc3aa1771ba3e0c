// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"
)

// SerialOptions returns the 8N1 blocking-read options used for the
// receiver's UART. Adjust the port name to your setup: /dev/serial0,
// /dev/ttyAMA0, /dev/ttyUSB0, etc.
func SerialOptions(portName string, baudRate int) serial.OpenOptions {
	return serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
}

// OpenSerial opens a receiver port as a raw byte stream.
func OpenSerial(portName string, baudRate int) (io.ReadWriteCloser, error) {
	if portName == "" {
		return nil, fmt.Errorf("serial: empty port name")
	}
	if baudRate <= 0 {
		return nil, fmt.Errorf("serial: %s: invalid baud rate %d", portName, baudRate)
	}
	port, err := serial.Open(SerialOptions(portName, baudRate))
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}
	log.Printf("serial: %s opened at %d baud", portName, baudRate)
	return port, nil
}
