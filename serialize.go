package microbian

import (
	"encoding/binary"
	"errors"
)

// kernelSerializeVersion is incremented whenever the binary layout below
// changes.
const kernelSerializeVersion = 1

// procSerializeSize is the fixed number of bytes one process-table entry
// occupies in a snapshot.
const procSerializeSize = 4 + 1 + MaxNameLen + 1 + 1 + 4 + 4 + 1 + 4

// SerializeSize returns the number of bytes Serialize needs for the
// kernel's current process count.
func (k *Kernel) SerializeSize() int {
	return 1 + 4 + 4 + 1 + k.nprocs*procSerializeSize
}

// Serialize writes a snapshot of the kernel's scheduler-visible state —
// the process table, ready-queue membership implied by each process's
// State, and which PID is current — into buf, which must be at least
// SerializeSize() bytes. Caller must hold k.mu.
//
// This is a debugging/record aid, not a suspend-to-disk mechanism: a
// goroutine's program counter and call stack are not data this package
// can serialize, so Deserialize can reconstruct the process table for
// inspection — a durable form of dump — but never hand the CPU back to a
// resumed process the way a real context switch would.
func (k *Kernel) Serialize(buf []byte) error {
	size := k.SerializeSize()
	if len(buf) < size {
		return errors.New("microbian: serialize buffer too small")
	}

	be := binary.BigEndian
	buf[0] = kernelSerializeVersion
	off := 1

	be.PutUint32(buf[off:], uint32(k.nprocs))
	off += 4
	be.PutUint32(buf[off:], uint32(k.current))
	off += 4
	buf[off] = boolByte(k.started)
	off++

	for i := 0; i < k.nprocs; i++ {
		p := &k.procs[i]

		be.PutUint32(buf[off:], uint32(p.PID))
		off += 4

		name := truncateName(p.Name)
		buf[off] = byte(len(name))
		off++
		copy(buf[off:off+MaxNameLen], name)
		off += MaxNameLen

		buf[off] = byte(p.State)
		off++
		buf[off] = byte(p.Priority)
		off++

		be.PutUint32(buf[off:], uint32(p.waitHead))
		off += 4
		be.PutUint32(buf[off:], uint32(p.next))
		off += 4

		buf[off] = boolByte(p.pending)
		off++

		be.PutUint32(buf[off:], uint32(p.msgType))
		off += 4
	}

	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// ProcessSnapshot is one process-table row as reconstructed by
// Deserialize: the subset of Process that is meaningful without a live
// goroutine and arena-backed stack behind it.
type ProcessSnapshot struct {
	PID      int
	Name     string
	State    State
	Priority int
	WaitHead int
	Next     int
	Pending  bool
	MsgType  int
}

// KernelSnapshot is the decoded form of a buffer written by Serialize.
type KernelSnapshot struct {
	Current int
	Started bool
	Procs   []ProcessSnapshot
}

// Deserialize decodes a buffer written by Serialize.
func Deserialize(buf []byte) (*KernelSnapshot, error) {
	if len(buf) < 10 {
		return nil, errors.New("microbian: deserialize buffer too small")
	}
	if buf[0] != kernelSerializeVersion {
		return nil, errors.New("microbian: unsupported serialize version")
	}

	be := binary.BigEndian
	off := 1

	nprocs := int(be.Uint32(buf[off:]))
	off += 4
	current := int(int32(be.Uint32(buf[off:])))
	off += 4
	started := buf[off] != 0
	off++

	if len(buf) < 10+nprocs*procSerializeSize {
		return nil, errors.New("microbian: deserialize buffer truncated")
	}

	snap := &KernelSnapshot{
		Current: current,
		Started: started,
		Procs:   make([]ProcessSnapshot, nprocs),
	}

	for i := 0; i < nprocs; i++ {
		var ps ProcessSnapshot

		ps.PID = int(be.Uint32(buf[off:]))
		off += 4

		nameLen := int(buf[off])
		off++
		ps.Name = string(buf[off : off+nameLen])
		off += MaxNameLen

		ps.State = State(buf[off])
		off++
		ps.Priority = int(buf[off])
		off++

		ps.WaitHead = int(int32(be.Uint32(buf[off:])))
		off += 4
		ps.Next = int(int32(be.Uint32(buf[off:])))
		off += 4

		ps.Pending = buf[off] != 0
		off++

		ps.MsgType = int(be.Uint32(buf[off:]))
		off += 4

		snap.Procs[i] = ps
	}

	return snap, nil
}
