package microbian

import (
	"fmt"
	"log"
)

// ErrorKind identifies the fatal condition behind a KernelError.
type ErrorKind int

const (
	OutOfMemory ErrorKind = iota
	TooManyProcesses
	BadDestination
	BadIrq
	BadPriority
	LateStart
	UnknownSyscall
	UnexpectedIrq
	HardFault
	BadMessageType
)

func (k ErrorKind) String() string {
	switch k {
	case OutOfMemory:
		return "OutOfMemory"
	case TooManyProcesses:
		return "TooManyProcesses"
	case BadDestination:
		return "BadDestination"
	case BadIrq:
		return "BadIrq"
	case BadPriority:
		return "BadPriority"
	case LateStart:
		return "LateStart"
	case UnknownSyscall:
		return "UnknownSyscall"
	case UnexpectedIrq:
		return "UnexpectedIrq"
	case HardFault:
		return "HardFault"
	case BadMessageType:
		return "BadMessageType"
	default:
		return "UnknownError"
	}
}

// KernelError reports a fatal kernel condition. Every one of them is
// unrecoverable: the device must be reset. In this Go rendition the
// panic is a real Go panic carrying *KernelError, recovered by runBody/
// idleBody (which park the goroutine) or by IRQEntry (which returns)
// rather than crashing the whole process out from under unrelated
// goroutines; embedders such as cmd/microbiand learn of it through
// Kernel.Fatal().
type KernelError struct {
	Kind    ErrorKind
	Proc    string // name of the current process when known, else ""
	message string
	err     error
}

func (e *KernelError) Error() string {
	msg := e.message
	if e.err != nil {
		if msg != "" {
			msg += ": " + e.err.Error()
		} else {
			msg = e.err.Error()
		}
	}
	if e.Proc != "" {
		return fmt.Sprintf("%s: %s (in process %s)", e.Kind, msg, e.Proc)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *KernelError) Unwrap() error {
	return e.err
}

func wrapErr(kind ErrorKind, proc string, err error, format string, args ...any) *KernelError {
	return &KernelError{
		Kind:    kind,
		Proc:    proc,
		message: fmt.Sprintf(format, args...),
		err:     err,
	}
}

func newErr(kind ErrorKind, proc, format string, args ...any) *KernelError {
	return wrapErr(kind, proc, nil, format, args...)
}

// fatal prints a diagnostic to the debug console and panics. Must be
// called with k.mu held. It deliberately never unlocks:
// mirroring the hardware, which spins with interrupts masked forever,
// k.mu stays locked so every other process's next enter() blocks for good.
// The panic unwinds the faulting process's goroutine only as far as its
// runBody/idleBody wrapper (sched.go), which recovers it rather than let
// an unhandled panic take down the host process — a library must not
// kill its embedder. The error is also delivered on k.fatalCh for
// whichever goroutine is watching Kernel.Fatal(), e.g. cmd/microbiand's
// main, which is the one place allowed to turn it into os.Exit.
func (k *Kernel) fatal(kind ErrorKind, procName string, format string, args ...any) {
	kerr := newErr(kind, procName, format, args...)
	log.Printf("[microbian] %s", kerr.Error())
	if k.console != nil {
		k.console.Reconfigure()
		k.console.WriteString("panic: " + kerr.Error() + "\n")
	}
	select {
	case k.fatalCh <- kerr:
	default:
	}
	panic(kerr)
}
