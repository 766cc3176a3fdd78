package microbian

// accept reports whether pdest is currently receiving a message that typ
// would satisfy, matching microbian.c's accept().
func accept(pdest *Process, typ int) bool {
	return pdest.State == RECEIVING && (pdest.msgType == ANY || pdest.msgType == typ)
}

// setState records a process as blocked in send/receive/sendrec,
// matching microbian.c's set_state().
func setState(p *Process, state State, typ int, msg *Message) {
	p.State = state
	p.msgType = typ
	p.msgBuf = msg
}

// enqueueWaiting links caller onto dest's waiting-senders list, matching
// microbian.c's enqueue(): appended at the tail, so the list stays FIFO.
func (k *Kernel) enqueueWaiting(caller *Process, dest *Process) {
	caller.next = NoPID
	if dest.waitHead == NoPID {
		dest.waitHead = caller.PID
	} else {
		r := &k.procs[dest.waitHead]
		for r.next != NoPID {
			r = &k.procs[r.next]
		}
		r.next = caller.PID
	}
}

// resolveDest validates a send/sendrec destination and returns it, or
// panics with BadDestination if it names no live process.
func (k *Kernel) resolveDest(caller *Process, dest int) *Process {
	if dest < 0 || dest >= k.nprocs || k.procs[dest].State == DEAD {
		k.fatal(BadDestination, caller.Name, "sending to a non-existent process %d", dest)
	}
	return &k.procs[dest]
}

// send implements microbian.c's mini_send: deliver directly into a
// waiting receiver's buffer if one is already blocked for this type,
// otherwise queue on the destination's waiting-senders list and block.
// Caller must hold k.mu (via enter); it may change k.current via
// chooseNext, and leave() (called by Proc.Send) handles the resulting
// park/wake.
func (k *Kernel) send(caller *Process, dest, typ int, msg *Message) {
	pdest := k.resolveDest(caller, dest)

	if accept(pdest, typ) {
		deliver(pdest.msgBuf, caller.PID, typ, msg)
		k.enqueueReady(pdest.PID, pdest.Priority)
		// sender remains running: k.current is unchanged.
		return
	}

	setState(caller, SENDING, typ, msg)
	k.enqueueWaiting(caller, pdest)
	k.chooseNext()
}

// receive implements microbian.c's mini_receive: satisfy immediately from
// a pending interrupt or a queued sender of a matching type, otherwise
// block until one arrives.
func (k *Kernel) receive(caller *Process, typ int, msg *Message) {
	if caller.pending && (typ == ANY || typ == INTERRUPT) {
		caller.pending = false
		deliver(msg, HARDWARE, INTERRUPT, nil)
		return
	}

	if typ != INTERRUPT {
		prev := NoPID
		for srcPID := caller.waitHead; srcPID != NoPID; {
			psrc := &k.procs[srcPID]
			if typ == ANY || psrc.msgType == typ {
				if prev == NoPID {
					caller.waitHead = psrc.next
				} else {
					k.procs[prev].next = psrc.next
				}

				deliver(msg, psrc.PID, psrc.msgType, psrc.msgBuf)
				switch psrc.State {
				case SENDING:
					k.enqueueReady(psrc.PID, psrc.Priority)
				case SENDREC:
					setState(psrc, RECEIVING, REPLY, psrc.msgBuf)
				}
				return
			}
			prev = srcPID
			srcPID = psrc.next
		}
	}

	setState(caller, RECEIVING, typ, msg)
	k.chooseNext()
}

// sendrec implements microbian.c's mini_sendrec: a combined send-then-
// receive-reply, atomic from the caller's perspective because the whole
// thing runs under k.mu without interleaving any other kernel operation.
func (k *Kernel) sendrec(caller *Process, dest, typ int, msg *Message) {
	pdest := k.resolveDest(caller, dest)

	if accept(pdest, typ) {
		deliver(pdest.msgBuf, caller.PID, typ, msg)
		k.enqueueReady(pdest.PID, pdest.Priority)
		setState(caller, RECEIVING, REPLY, msg)
	} else {
		setState(caller, SENDREC, typ, msg)
		k.enqueueWaiting(caller, pdest)
	}

	k.chooseNext()
}
