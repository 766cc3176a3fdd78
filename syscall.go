package microbian

// syscallOp identifies a trap, the Go substitute for the SVC immediate
// operand a real trap handler would read out of the faulting
// instruction. Kept as its own type (rather than inlining each case into
// Proc's methods) so the dispatch mirrors a table-driven opcode
// dispatcher: a fixed-size array of handlers indexed by an integer op.
type syscallOp int

const (
	sysYield syscallOp = iota
	sysSend
	sysReceive
	sysSendRec
	sysExit
	sysDump
	numSyscalls
)

// syscallArgs carries the "saved register slots" a trap's operands would
// occupy; unused fields are simply ignored by ops that don't need them.
type syscallArgs struct {
	dest int
	typ  int
	msg  *Message
}

// dispatchTable routes a trap number to the kernel operation it performs.
// Each entry assumes k.mu is already held (via enter) and that it alone is
// responsible for leaving k.current in the state the caller should resume
// from — exactly the contract system_call() has with mini_send et al.
var dispatchTable = [numSyscalls]func(k *Kernel, p *Process, a syscallArgs){
	sysYield: func(k *Kernel, p *Process, a syscallArgs) {
		k.enqueueReady(p.PID, p.Priority)
		k.chooseNext()
	},
	sysSend: func(k *Kernel, p *Process, a syscallArgs) {
		k.send(p, a.dest, a.typ, a.msg)
	},
	sysReceive: func(k *Kernel, p *Process, a syscallArgs) {
		k.receive(p, a.typ, a.msg)
	},
	sysSendRec: func(k *Kernel, p *Process, a syscallArgs) {
		k.sendrec(p, a.dest, a.typ, a.msg)
	},
	sysExit: func(k *Kernel, p *Process, a syscallArgs) {
		p.State = DEAD
		k.chooseNext()
	},
	sysDump: func(k *Kernel, p *Process, a syscallArgs) {
		k.dump()
	},
}

// systemCall is the trap entry point: it runs op's handler from
// dispatchTable under the kernel lock, matching microbian.c's
// system_call(). Callers (Proc's methods) are responsible for the
// enter/leave park protocol around this.
func (k *Kernel) systemCall(p *Process, op syscallOp, a syscallArgs) {
	fn := dispatchTable[op]
	if fn == nil {
		k.fatal(UnknownSyscall, p.Name, "unknown syscall %d", op)
	}
	fn(k, p, a)
}
