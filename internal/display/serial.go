package display

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// SerialConsole is a Terminal on a UART.
type SerialConsole struct {
	*Terminal
	port io.Closer
}

// OpenSerial opens a serial port (e.g. /dev/ttyUSB0) and renders status on
// the terminal attached to it.
func OpenSerial(name string, baud int) (*SerialConsole, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	term, err := NewTerminal(port)
	if err != nil {
		port.Close()
		return nil, err
	}
	return &SerialConsole{Terminal: term, port: port}, nil
}

// Close releases the port.
func (s *SerialConsole) Close() error {
	return s.port.Close()
}
