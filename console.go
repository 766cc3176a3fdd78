package microbian

import (
	"strings"
	"sync"
	"time"

	serial "github.com/daedaluz/goserial"
)

// BufferConsole is an in-memory Console for tests: Dump/panic output
// accumulates in a buffer a test can inspect, instead of needing a real
// UART.
type BufferConsole struct {
	mu  sync.Mutex
	buf strings.Builder
}

func NewBufferConsole() *BufferConsole {
	return &BufferConsole{}
}

func (c *BufferConsole) Reconfigure() {}

func (c *BufferConsole) WriteString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(s)
}

// String returns everything written so far.
func (c *BufferConsole) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// SerialConsole backs Dump/panic output with a real serial device,
// reconfiguring the UART before printing a diagnostic so a wedged or
// misconfigured port doesn't swallow it. cmd/microbiand uses it when
// --console names a device (opened via github.com/daedaluz/goserial);
// with no device configured the demo writes to stdout instead.
type SerialConsole struct {
	mu   sync.Mutex
	port *serial.Port
}

// OpenSerialConsole opens name (e.g. "/dev/ttyUSB0") as the debug UART.
func OpenSerialConsole(name string) (*SerialConsole, error) {
	opts := serial.NewOptions().SetReadTimeout(0)
	port, err := serial.Open(name, opts)
	if err != nil {
		return nil, wrapErr(HardFault, "", err, "opening debug console %q", name)
	}
	return &SerialConsole{port: port}, nil
}

// Reconfigure matches microbian.c's kprintf_setup: a short settle delay
// (real UART activity has time to stop), then a from-scratch attribute
// reset so debug output always lands the same way regardless of what the
// console was previously doing.
func (c *SerialConsole) Reconfigure() {
	time.Sleep(2 * time.Millisecond)

	attrs, err := c.port.GetAttr()
	if err != nil {
		return
	}
	attrs.MakeRaw()
	attrs.SetSpeed(serial.B9600)
	_ = c.port.SetAttr(serial.TCSANOW, attrs)
}

func (c *SerialConsole) WriteString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.port.Write([]byte(s))
}

// Close releases the underlying port.
func (c *SerialConsole) Close() error {
	return c.port.Close()
}
