// Package microbian is a small preemptive microkernel for teaching and
// small embedded applications. Processes are fixed at startup and
// communicate exclusively by synchronous, unbuffered, typed message
// passing; hardware interrupts are delivered as messages to a registered
// handler process.
package microbian

import "sync"

// IRQLine is the device-plumbing contract the kernel needs from whatever
// stands in for hardware: enable/disable a line, report which is active,
// and put the CPU to sleep. It is a narrow seam between kernel logic and
// hardware, analogous to a CPU emulator's bus interface, kept separate so
// a software-only implementation can stand in for real hardware.
// SimIRQLine (irqline.go) is that software-only implementation, used by
// tests and the default for NewKernel.
type IRQLine interface {
	EnableIRQ(irq int)
	DisableIRQ(irq int)
	ActiveIRQ() int // -1 when none
	Pause()         // block until the next interrupt, or return immediately if one is already pending
}

// Console is the debug output sink used by Dump and by fatal-error
// diagnostics, which reconfigure the UART before printing a diagnostic.
// See console.go for the in-memory and serial-backed implementations.
type Console interface {
	Reconfigure()
	WriteString(s string)
}

// Kernel is the kernel's entire mutable state, gathered into one struct
// with a single-writer discipline: every method that touches procs,
// ready, handler or current does so only while holding mu, which stands
// in for "kernel runs with interrupts masked."
type Kernel struct {
	mu sync.Mutex

	procs   [MaxProcs]Process
	nprocs  int
	ready   [numPriorities]readyQueue
	handler [MaxIrq + 1]int // PID of registered handler, 0 (IDLE) = none
	current int

	started bool
	arena   *arena

	irqLine IRQLine
	console Console

	fatalCh chan error // delivered to once, by the first fatal() call
}

// Config controls the fixed resources NewKernel carves up; it exists so
// tests can run a kernel with a tiny arena to exercise OutOfMemory
// boundary behaviors quickly.
type Config struct {
	ArenaSize     int     // total bytes available for stacks + descriptors
	IdleStackSize uint    // 128 bytes by default
	IRQLine       IRQLine // nil selects a SimIRQLine
	Console       Console // nil selects an in-memory BufferConsole
}

// DefaultConfig returns sensible sizes for a demo or test kernel.
func DefaultConfig() Config {
	return Config{
		ArenaSize:     64 * 1024,
		IdleStackSize: 128,
	}
}

// NewKernel builds a kernel with process 0 already created as IDLE (by
// osInit), ready for Run.
func NewKernel(cfg Config) *Kernel {
	if cfg.ArenaSize <= 0 {
		cfg.ArenaSize = DefaultConfig().ArenaSize
	}
	if cfg.IdleStackSize == 0 {
		cfg.IdleStackSize = 128
	}
	if cfg.IRQLine == nil {
		cfg.IRQLine = NewSimIRQLine()
	}
	if cfg.Console == nil {
		cfg.Console = NewBufferConsole()
	}

	k := &Kernel{
		arena:   newArena(cfg.ArenaSize, int(processDescriptorCost)),
		irqLine: cfg.IRQLine,
		console: cfg.Console,
		current: NoPID,
		fatalCh: make(chan error, 1),
	}
	for i := range k.ready {
		k.ready[i] = readyQueue{head: NoPID, tail: NoPID}
	}
	for i := range k.handler {
		k.handler[i] = 0
	}

	if err := k.osInit(cfg.IdleStackSize); err != nil {
		// osInit only fails if the arena is too small for one stack
		// plus one descriptor, which DefaultConfig never triggers; a
		// caller supplying a too-small Config gets the same panic
		// semantics as any other OutOfMemory.
		panic(err)
	}
	return k
}

// processDescriptorCost is the notional "sizeof(struct proc)" charged
// against the high end of the arena per process, matching microbian.c's
// new_proc. It is a bookkeeping constant, not a real allocation: process
// descriptors live in Kernel.procs, a fixed Go array.
const processDescriptorCost = 64

// currentProc returns the currently-scheduled process. Callers must hold
// k.mu.
func (k *Kernel) currentProc() *Process {
	return &k.procs[k.current]
}

// Fatal returns the channel a fatal kernel error is delivered on. A
// read from it never returns more than once: after the first fatal
// condition, the kernel is permanently wedged and nothing further will
// happen. Embedders that want to turn a fatal condition
// into a clean process exit (rather than leaving goroutines parked
// forever) should select on this alongside their own shutdown signals.
func (k *Kernel) Fatal() <-chan error {
	return k.fatalCh
}
