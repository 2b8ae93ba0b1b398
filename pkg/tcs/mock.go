package tcs

import (
	"fmt"
	"sync"
	"time"
)

// MockTransport simulates the stimulator console for testing and
// development. Written commands are recorded; responses are produced by an
// optional responder function keyed on the command, or queued explicitly.
type MockTransport struct {
	mu        sync.Mutex
	commands  []string
	pending   []string
	responder func(cmd string) (string, bool)
	readDelay time.Duration
	flushes   int
	closed    bool
}

// NewMock creates an idle mock transport with no scripted responses.
func NewMock() *MockTransport {
	return &MockTransport{}
}

// Respond installs a responder invoked on every written command. When it
// returns ok, the line is queued for the next ReadLine.
func (m *MockTransport) Respond(f func(cmd string) (string, bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = f
}

// QueueLine queues one response line for ReadLine.
func (m *MockTransport) QueueLine(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, line)
}

// SetReadDelay makes every ReadLine block for d, simulating the
// round-trip latency that bounds the polling rate.
func (m *MockTransport) SetReadDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readDelay = d
}

// Commands returns every command written so far, in order.
func (m *MockTransport) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.commands))
	copy(out, m.commands)
	return out
}

// Flushes returns how many times Flush was called.
func (m *MockTransport) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Write records the command and runs the responder.
func (m *MockTransport) Write(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock transport is closed")
	}
	cmd := string(p)
	m.commands = append(m.commands, cmd)
	if m.responder != nil {
		if line, ok := m.responder(cmd); ok {
			m.pending = append(m.pending, line)
		}
	}
	return nil
}

// ReadLine pops the next queued response.
func (m *MockTransport) ReadLine() (string, error) {
	m.mu.Lock()
	delay := m.readDelay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", fmt.Errorf("mock transport is closed")
	}
	if len(m.pending) == 0 {
		return "", fmt.Errorf("no response available")
	}
	line := m.pending[0]
	m.pending = m.pending[1:]
	return line, nil
}

// Flush discards queued responses.
func (m *MockTransport) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock transport is closed")
	}
	m.flushes++
	m.pending = nil
	return nil
}

// Close marks the transport closed; further operations fail.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
