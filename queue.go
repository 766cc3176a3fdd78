package microbian

// readyQueue is a FIFO of PIDs for one priority level, linked through each
// Process's next field (DESIGN NOTES: "a single exclusive link field...
// owned by at most one list at a time").
type readyQueue struct {
	head, tail int // PID, or NoPID when empty
}

// enqueueReady appends p to the ready queue for prio, matching
// microbian.c's make_ready. A no-op for P_IDLE: the idle process is
// never enqueued, since chooseNext falls back to it automatically when
// every real queue is empty.
func (k *Kernel) enqueueReady(pid int, prio int) {
	if prio == P_IDLE {
		return
	}
	p := &k.procs[pid]
	p.State = ACTIVE
	p.next = NoPID

	q := &k.ready[prio]
	if q.head == NoPID {
		q.head = pid
	} else {
		k.procs[q.tail].next = pid
	}
	q.tail = pid
}

// chooseNext scans priorities P_HANDLER..P_LOW in order and dequeues the
// head of the first non-empty queue, falling back to the idle process.
// Selection is strictly priority-ordered with FIFO within a level; there
// is no timeslicing or aging.
func (k *Kernel) chooseNext() {
	for prio := 0; prio < numPriorities; prio++ {
		q := &k.ready[prio]
		if q.head != NoPID {
			k.current = q.head
			q.head = k.procs[k.current].next
			if q.head == NoPID {
				q.tail = NoPID
			}
			return
		}
	}
	k.current = idlePID
}
