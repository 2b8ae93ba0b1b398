package tcs

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate of the TCS console link.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds a single read on the serial line.
	DefaultReadTimeout = 100 * time.Millisecond
)

// Transport is the byte-oriented channel to the stimulator. Commands are
// written as-is; responses arrive as newline-terminated lines. A Transport
// is exclusively owned by one Session.
type Transport interface {
	Write(p []byte) error
	ReadLine() (string, error)
	Flush() error
	Close() error
}

// Ensure both transports satisfy the interface.
var (
	_ Transport = (*SerialTransport)(nil)
	_ Transport = (*MockTransport)(nil)
)

// Port represents an available serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of serial ports present on the host.
func Ports() ([]Port, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(names))
	for _, name := range names {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// SerialTransport drives the stimulator over a serial port.
type SerialTransport struct {
	port   serial.Port
	reader *bufio.Reader
}

// SerialOption adjusts serial line parameters.
type SerialOption func(*serialOptions)

type serialOptions struct {
	baudRate    int
	readTimeout time.Duration
}

// WithBaudRate overrides the default baud rate.
func WithBaudRate(rate int) SerialOption {
	return func(o *serialOptions) { o.baudRate = rate }
}

// WithReadTimeout overrides the default read timeout.
func WithReadTimeout(d time.Duration) SerialOption {
	return func(o *serialOptions) { o.readTimeout = d }
}

// OpenSerial opens the named serial port with stimulator defaults
// (115200 baud, 100ms read timeout).
func OpenSerial(name string, opts ...SerialOption) (*SerialTransport, error) {
	o := serialOptions{
		baudRate:    DefaultBaudRate,
		readTimeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: o.baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(o.readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}

	return &SerialTransport{
		port:   port,
		reader: bufio.NewReader(port),
	}, nil
}

// Write sends raw command bytes to the device.
func (t *SerialTransport) Write(p []byte) error {
	if _, err := t.port.Write(p); err != nil {
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

// ReadLine reads one newline-terminated response, with line terminators
// stripped.
func (t *SerialTransport) ReadLine() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("serial read failed: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Flush drains pending output and discards any unread input, so the next
// ReadLine sees only the response to the next command.
func (t *SerialTransport) Flush() error {
	if err := t.port.Drain(); err != nil {
		return fmt.Errorf("serial drain failed: %w", err)
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("serial input reset failed: %w", err)
	}
	t.reader.Reset(t.port)
	return nil
}

// Close closes the serial port.
func (t *SerialTransport) Close() error {
	return t.port.Close()
}
