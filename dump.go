package microbian

import "fmt"

// DebugDump prints the process table to the kernel's console from outside
// any process, the way a debugger attached over JTAG could without going
// through a trap. It takes k.mu itself rather than going through Proc.Dump,
// since the caller isn't a scheduled process at all.
func (k *Kernel) DebugDump() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.dump()
}

// dump walks every live process-table entry and writes one line per
// process to the debug console, in the style of microbian_dump — PID,
// state, stack base, high-water-mark usage out of the total, and name.
// Must be called with k.mu held.
func (k *Kernel) dump() {
	k.console.WriteString("Processes:\n")
	for i := 0; i < k.nprocs; i++ {
		p := &k.procs[i]
		used := usedBytes(p.stack)
		k.console.WriteString(fmt.Sprintf(
			"%2d: %s base=%6d used=%4d/%-4d %s\n",
			p.PID, p.State, p.stackBase, used, p.stackSize, p.Name,
		))
	}
}
