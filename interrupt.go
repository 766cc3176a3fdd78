package microbian

// connect raises the caller to handler priority, registers it in the
// handler table, and enables the line. Connecting to an exception vector
// (irq < 0) or a line beyond the handler table (irq > MaxIrq) is fatal.
func (k *Kernel) connect(caller *Process, irq int) {
	if irq < 0 || irq > MaxIrq {
		k.fatal(BadIrq, caller.Name, "can't connect to CPU exceptions (irq %d)", irq)
	}
	caller.Priority = P_HANDLER
	k.handler[irq] = caller.PID
	k.irqLine.EnableIRQ(irq)
}

// setPriority sets the caller's scheduling priority, valid only for the
// three scheduled levels.
func (k *Kernel) setPriority(caller *Process, p int) {
	if p < 0 || p > P_LOW {
		k.fatal(BadPriority, caller.Name, "bad priority %d", p)
	}
	caller.Priority = p
}

// interrupt delivers a hardware interrupt to dest, the registered handler
// process. It reports whether the currently-running process should be
// preempted (a reschedule was requested), which IRQEntry turns into a
// context switch.
func (k *Kernel) interrupt(dest int) (reschedule bool) {
	pdest := &k.procs[dest]

	if pdest.State == RECEIVING && (pdest.msgType == ANY || pdest.msgType == INTERRUPT) {
		deliver(pdest.msgBuf, HARDWARE, INTERRUPT, nil)
		k.enqueueReady(pdest.PID, P_HANDLER)
		if k.procs[k.current].Priority > P_HANDLER {
			return true
		}
		return false
	}

	pdest.pending = true
	return false
}

// IRQEntry is the common interrupt handler invoked from whatever stands in
// for the low-level interrupt trampoline for any enabled IRQ: it looks up
// the active IRQ itself, looks up its registered handler, disables the
// line, then delivers the interrupt.
func (k *Kernel) IRQEntry() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*KernelError); !ok {
				panic(r)
			}
			// k.mu is left locked by fatal(), by design; the caller's next
			// kernel call (if any) will block forever rather than observe
			// a half-wedged kernel.
		}
	}()

	k.mu.Lock()
	irq := k.irqLine.ActiveIRQ()
	var task int
	if irq < 0 || irq > MaxIrq {
		task = 0
	} else {
		task = k.handler[irq]
	}
	if task == 0 {
		k.fatal(UnexpectedIrq, k.procs[k.current].Name, "unexpected interrupt %d", irq)
	}
	k.irqLine.DisableIRQ(irq)
	reschedule := k.interrupt(task)
	if !reschedule {
		k.mu.Unlock()
		return
	}
	k.cxtSwitch()
}

// cxtSwitch performs the interrupt-driven context switch: the current
// process was preempted, not blocked, so it is unconditionally
// re-enqueued before a new current is chosen. Must be called with k.mu
// held; it unlocks before returning.
func (k *Kernel) cxtSwitch() {
	cur := &k.procs[k.current]
	prevPID := cur.PID
	k.enqueueReady(cur.PID, cur.Priority)
	k.chooseNext()
	next := k.current
	k.mu.Unlock()
	if next != prevPID {
		k.procs[next].tok.wake()
	}
}
