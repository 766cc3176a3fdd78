package microbian

import "runtime"

// Proc is the handle a process body runs with — the Go substitute for
// microbian.c's stub functions placing arguments in registers and
// trapping. A process body has the signature func(*Proc, int) and calls
// these methods on itself to yield, exchange messages, register for
// interrupts, and terminate. Methods must only be called by the
// goroutine the body function itself is running on.
type Proc struct {
	k *Kernel
	p *Process
}

// PID returns the caller's own process ID.
func (proc *Proc) PID() int { return proc.p.PID }

// Name returns the caller's own name.
func (proc *Proc) Name() string { return proc.p.Name }

// Yield re-enqueues the caller at its own priority and reschedules.
func (proc *Proc) Yield() {
	k, p := proc.k, proc.p
	k.enter(p)
	k.systemCall(p, sysYield, syscallArgs{})
	k.leave(p)
}

// Send performs a synchronous send: it blocks until dest accepts.
func (proc *Proc) Send(dest, typ int, msg *Message) {
	k, p := proc.k, proc.p
	k.enter(p)
	k.systemCall(p, sysSend, syscallArgs{dest: dest, typ: typ, msg: msg})
	k.leave(p)
}

// Receive blocks until a matching message arrives. typ may be a specific
// type, ANY, or INTERRUPT.
func (proc *Proc) Receive(typ int, msg *Message) {
	k, p := proc.k, proc.p
	k.enter(p)
	k.systemCall(p, sysReceive, syscallArgs{typ: typ, msg: msg})
	k.leave(p)
}

// SendRec performs send followed by receive(REPLY) on the same buffer,
// atomically from the caller's perspective.
func (proc *Proc) SendRec(dest, typ int, msg *Message) {
	k, p := proc.k, proc.p
	k.enter(p)
	k.systemCall(p, sysSendRec, syscallArgs{dest: dest, typ: typ, msg: msg})
	k.leave(p)
}

// Exit terminates the caller. It never returns: it ends the goroutine
// running the process body with runtime.Goexit, which still runs that
// goroutine's deferred calls (including runBody's) on the way out.
func (proc *Proc) Exit() {
	k, p := proc.k, proc.p
	k.enter(p)
	k.systemCall(p, sysExit, syscallArgs{})
	next := k.current
	k.mu.Unlock()
	if next != p.PID {
		k.procs[next].tok.wake()
	}
	runtime.Goexit()
}

// Dump prints the process table to the debug console. It runs from the
// system-call path so its own working memory is on the
// kernel's call stack, not the caller's — trivially true here since it is
// just a Go function call, but kept as an explicit trap for fidelity.
func (proc *Proc) Dump() {
	k, p := proc.k, proc.p
	k.enter(p)
	k.systemCall(p, sysDump, syscallArgs{})
	k.leave(p)
}

// Connect registers the caller as the handler for irq, raising its
// priority to P_HANDLER and enabling the line. This is a non-trap entry
// point: it runs in the caller's own context, like microbian.c's
// connect().
func (proc *Proc) Connect(irq int) {
	k, p := proc.k, proc.p
	k.mu.Lock()
	k.connect(p, irq)
	k.mu.Unlock()
}

// Priority sets the caller's scheduling priority to one of P_HANDLER,
// P_HIGH, or P_LOW.
func (proc *Proc) Priority(level int) {
	k, p := proc.k, proc.p
	k.mu.Lock()
	k.setPriority(p, level)
	k.mu.Unlock()
}

// BadMessageType panics with BadMessageType, for application message-
// switch default cases, matching microbian.c's badmesg().
func (proc *Proc) BadMessageType(typ int) {
	proc.k.mu.Lock()
	proc.k.fatal(BadMessageType, proc.p.Name, "bad message type %d", typ)
}
