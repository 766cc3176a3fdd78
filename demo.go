package microbian

import "fmt"

// EchoServer is a minimal reference process: it receives any message and
// sends an identical one back to the sender as a REPLY, the simplest
// possible rendezvous client can sendrec against. Useful as a scenario
// manifest role ("echo") and in tests that just need something listening.
func EchoServer(p *Proc, arg int) {
	var msg Message
	for {
		p.Receive(ANY, &msg)
		reply := msg
		p.Send(msg.Sender, REPLY, &reply)
	}
}

// InterruptCounter is a reference interrupt handler: it connects to the
// IRQ passed as arg, counts deliveries, and dumps the process table every
// few interrupts so a scenario log shows the handler keeping up — the
// shape of a typical device driver process.
func InterruptCounter(p *Proc, irq int) {
	p.Priority(P_HANDLER)
	p.Connect(irq)

	var msg Message
	var count uint32
	for {
		p.Receive(INTERRUPT, &msg)
		p.Connect(irq) // re-enable the line IRQEntry disabled before delivery
		count++
		if count%4 == 0 {
			p.Dump()
		}
	}
}

// Logger drains ANY message sent to it and writes a one-line summary
// to standard output, standing in for a real driver (UART,
// framebuffer, ...) a scenario might route traffic to.
func Logger(p *Proc, arg int) {
	var msg Message
	for {
		p.Receive(ANY, &msg)
		fmt.Printf("logger: from=%d type=%d\n", msg.Sender, msg.Type)
	}
}

// demoRegistry maps a scenario manifest's role name onto a process body.
var demoRegistry = map[string]func(*Proc, int){
	"echo":              EchoServer,
	"interrupt-counter": InterruptCounter,
	"logger":            Logger,
}

// Spawn body looked up by role, or false if role is unknown.
func bodyForRole(role string) (func(*Proc, int), bool) {
	body, ok := demoRegistry[role]
	return body, ok
}

// BuildScenario spawns every process a Scenario names (in manifest order)
// against a freshly created kernel, wiring IRQ fields through as each
// body's arg, and returns the kernel without starting it — callers call
// Run themselves once they're ready for the scenario to go live.
func BuildScenario(s *Scenario, irqLine IRQLine, console Console) (*Kernel, error) {
	k := NewKernel(Config{
		ArenaSize:     s.ArenaSize,
		IdleStackSize: s.IdleStackSize,
		IRQLine:       irqLine,
		Console:       console,
	})

	for _, ps := range s.Processes {
		body, ok := bodyForRole(ps.Role)
		if !ok {
			return nil, fmt.Errorf("microbian: scenario process %q has unknown role %q", ps.Name, ps.Role)
		}
		priority, err := ResolvePriority(ps.Priority)
		if err != nil {
			return nil, fmt.Errorf("microbian: scenario process %q: %w", ps.Name, err)
		}
		k.Spawn(ps.Name, ps.StackSize, priority, body, ps.IRQ)
	}

	return k, nil
}
