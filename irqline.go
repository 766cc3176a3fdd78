package microbian

import "sync"

// SimIRQLine is a software-only IRQLine for tests and the default
// NewKernel configuration: it has no real hardware, just an enabled-set
// and a pending queue a test can push into with Raise.
type SimIRQLine struct {
	mu      sync.Mutex
	enabled [MaxIrq + 1]bool
	pending []int
	wake    chan struct{}
}

// NewSimIRQLine returns a SimIRQLine with every line initially disabled.
func NewSimIRQLine() *SimIRQLine {
	return &SimIRQLine{wake: make(chan struct{}, 1)}
}

func (s *SimIRQLine) EnableIRQ(irq int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if irq >= 0 && irq <= MaxIrq {
		s.enabled[irq] = true
	}
}

func (s *SimIRQLine) DisableIRQ(irq int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if irq >= 0 && irq <= MaxIrq {
		s.enabled[irq] = false
	}
}

// ActiveIRQ returns the oldest still-pending, still-enabled line, or -1.
// Lines disabled since they were raised (e.g. a storming level-triggered
// source silenced by a prior IRQEntry) are dropped rather than reported.
func (s *SimIRQLine) ActiveIRQ() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending) > 0 {
		irq := s.pending[0]
		s.pending = s.pending[1:]
		if s.enabled[irq] {
			return irq
		}
	}
	return -1
}

// Pause blocks until a line is raised, or returns immediately if one
// already is — the simulated wait-for-interrupt primitive idle uses.
func (s *SimIRQLine) Pause() {
	s.mu.Lock()
	if len(s.pending) > 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	<-s.wake
}

// Raise marks irq as the newest pending interrupt and wakes anything
// blocked in Pause. It is the test/demo substitute for a real device
// asserting its interrupt line.
func (s *SimIRQLine) Raise(irq int) {
	s.mu.Lock()
	s.pending = append(s.pending, irq)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// TriggerIRQ raises irq on the kernel's IRQLine (if it is a SimIRQLine)
// and runs IRQEntry, as a convenience for tests and the demo scenario
// runner that don't have real hardware generating interrupts.
func (k *Kernel) TriggerIRQ(irq int) {
	if sim, ok := k.irqLine.(*SimIRQLine); ok {
		sim.Raise(irq)
	}
	k.IRQEntry()
}
