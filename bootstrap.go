package microbian

// osInit creates PID 0, the idle process, directly into the process
// table rather than through Spawn: it runs at P_IDLE, which Spawn
// refuses to accept, and it must exist before any other process can be
// created. Its goroutine is started immediately but stays parked until
// Run hands it the first turn.
func (k *Kernel) osInit(idleStackSize uint) error {
	stack, err := k.arena.allocStack(idleStackSize)
	if err != nil {
		return err
	}
	if err := k.arena.allocDescriptor(); err != nil {
		return err
	}

	p := &k.procs[idlePID]
	*p = Process{
		PID:       idlePID,
		Name:      "IDLE",
		State:     IDLING,
		Priority:  P_IDLE,
		stack:     stack,
		stackBase: uint(k.arena.stackBreak - len(stack)),
		stackSize: idleStackSize,
		waitHead:  NoPID,
		next:      NoPID,
		tok:       newParkToken(),
	}
	k.nprocs = 1
	go idleBody(k)
	return nil
}

// truncateName enforces the process name-length limit the way
// microbian.c's start() silently truncates into a fixed char array.
func truncateName(name string) string {
	if len(name) > MaxNameLen {
		return name[:MaxNameLen]
	}
	return name
}

// Spawn creates a new process, the Go rendition of microbian.c's start.
// It allocates a stack and descriptor from the arena, enqueues the
// process ready at priority, and launches its goroutine — parked until
// the scheduler gives it a turn. Every failure mode is fatal: there is
// no way for a caller to recover from a full process table, an
// exhausted arena, a bad priority, or calling Spawn after Run.
func (k *Kernel) Spawn(name string, stackSize uint, priority int, body func(*Proc, int), arg int) int {
	k.mu.Lock()

	if k.started {
		k.fatal(LateStart, name, "start called after the scheduler is already running")
	}
	if k.nprocs >= MaxProcs {
		k.fatal(TooManyProcesses, name, "process table is full (%d processes)", MaxProcs)
	}
	if priority < 0 || priority > P_LOW {
		k.fatal(BadPriority, name, "bad priority %d", priority)
	}

	stack, err := k.arena.allocStack(stackSize)
	if err != nil {
		k.fatal(OutOfMemory, name, "%v", err)
	}
	if err := k.arena.allocDescriptor(); err != nil {
		k.fatal(OutOfMemory, name, "%v", err)
	}

	pid := k.nprocs
	k.nprocs++

	p := &k.procs[pid]
	*p = Process{
		PID:       pid,
		Name:      truncateName(name),
		State:     ACTIVE,
		Priority:  priority,
		stack:     stack,
		stackBase: uint(k.arena.stackBreak - len(stack)),
		stackSize: stackSize,
		waitHead:  NoPID,
		next:      NoPID,
		tok:       newParkToken(),
	}
	k.enqueueReady(pid, priority)
	k.mu.Unlock()
	go runBody(k, p, body, arg)
	return pid
}

// Run is the Go rendition of microbian.c's os_start: it picks the first
// process to run from whatever Spawn calls have queued up, hands it the
// CPU, and returns immediately — the simulated processes continue
// running on their own goroutines after this call returns, the way real
// microbian never returns from os_start at all because the CPU itself
// becomes the scheduled process's stack. Calling Run twice is a no-op.
func (k *Kernel) Run() {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return
	}
	k.started = true
	k.chooseNext()
	next := k.current
	k.mu.Unlock()
	k.procs[next].tok.wake()
}
