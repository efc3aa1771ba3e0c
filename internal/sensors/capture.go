package sensors

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// capture is a recorded receiver stream read back from disk.
type capture struct {
	*bufio.Reader
	f *os.File
}

func (c *capture) Close() error { return c.f.Close() }

// OpenCapture opens a capture file; "-" reads standard input.
func OpenCapture(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(bufio.NewReader(os.Stdin)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return &capture{Reader: bufio.NewReader(f), f: f}, nil
}

// Open returns a capture for regular files and a serial port for
// everything else (character devices, pseudo terminals).
func Open(path string, baudRate int) (io.ReadCloser, error) {
	if path == "-" {
		return OpenCapture(path)
	}
	fi, err := os.Stat(path)
	if err == nil && fi.Mode().IsRegular() {
		return OpenCapture(path)
	}
	return OpenSerial(path, baudRate)
}
