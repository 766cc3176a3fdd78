package microbian

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestKernel returns a kernel with a small arena and an in-memory
// console, suitable for driving by hand in tests.
func newTestKernel() *Kernel {
	return NewKernel(Config{
		ArenaSize:     8 * 1024,
		IdleStackSize: 128,
		Console:       NewBufferConsole(),
	})
}

// recvWithin waits for a value on ch, failing the test if none arrives in
// time — a goroutine deadlocked on a kernel bug should fail fast, not hang
// the whole suite.
func recvWithin[T any](t *testing.T, ch <-chan T, d time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(d):
		t.Fatal("timed out waiting for process result")
		var zero T
		return zero
	}
}

const reqType = 10

func Test_DirectRendezvous(t *testing.T) {
	k := newTestKernel()
	results := make(chan Message, 1)

	bPID := k.Spawn("B", 256, P_LOW, func(p *Proc, arg int) {
		var m Message
		p.Receive(ANY, &m)
		results <- m
	}, 0)

	aPID := k.Spawn("A", 256, P_LOW, func(p *Proc, arg int) {
		var m Message
		m.Payload[0] = 0x42
		p.Send(bPID, 7, &m)
	}, 0)

	k.Run()

	m := recvWithin(t, results, time.Second)
	assert.Equal(t, aPID, m.Sender)
	assert.Equal(t, 7, m.Type)
	assert.Equal(t, byte(0x42), m.Payload[0])
}

func Test_SenderFirstQueuing(t *testing.T) {
	k := newTestKernel()
	firstMatch := make(chan Message, 1)
	secondMatch := make(chan Message, 1)

	bPID := k.Spawn("B", 256, P_LOW, func(p *Proc, arg int) {
		p.Yield() // let A and C queue their sends first
		var m Message
		p.Receive(2, &m)
		firstMatch <- m
		var m2 Message
		p.Receive(ANY, &m2)
		secondMatch <- m2
	}, 0)

	aPID := k.Spawn("A", 256, P_LOW, func(p *Proc, arg int) {
		var m Message
		p.Send(bPID, 1, &m)
	}, 0)

	cPID := k.Spawn("C", 256, P_LOW, func(p *Proc, arg int) {
		var m Message
		p.Send(bPID, 2, &m)
	}, 0)

	k.Run()

	first := recvWithin(t, firstMatch, time.Second)
	assert.Equal(t, cPID, first.Sender, "type-2 receive should match C, skipping A")
	assert.Equal(t, 2, first.Type)

	second := recvWithin(t, secondMatch, time.Second)
	assert.Equal(t, aPID, second.Sender, "A's message should still be queued, delivered on the next receive")
	assert.Equal(t, 1, second.Type)
}

func Test_SendrecReply(t *testing.T) {
	k := newTestKernel()
	results := make(chan Message, 1)

	serverPID := k.Spawn("server", 256, P_LOW, func(p *Proc, arg int) {
		var req Message
		p.Receive(reqType, &req)
		var resp Message
		resp.PutUint32(0, 99)
		p.Send(req.Sender, REPLY, &resp)
	}, 0)

	k.Spawn("client", 256, P_LOW, func(p *Proc, arg int) {
		var m Message
		m.PutUint32(0, 42)
		p.SendRec(serverPID, reqType, &m)
		results <- m
	}, 0)

	k.Run()

	m := recvWithin(t, results, time.Second)
	assert.Equal(t, serverPID, m.Sender)
	assert.Equal(t, REPLY, m.Type)
	assert.Equal(t, uint32(99), m.Uint32(0))
}

func Test_PriorityOrdering(t *testing.T) {
	k := newTestKernel()
	order := make(chan string, 2)

	xPID := k.Spawn("X", 256, P_HIGH, func(p *Proc, arg int) {
		var m Message
		p.Receive(ANY, &m) // blocks until Y's send below makes it ready
		order <- "X"
	}, 0)

	k.Spawn("Y", 256, P_LOW, func(p *Proc, arg int) {
		var m Message
		p.Send(xPID, 1, &m) // X becomes ready; the sender remains running
		p.Yield()           // X must run before Y resumes past here
		order <- "Y"
	}, 0)

	k.Run()

	first := recvWithin(t, order, time.Second)
	second := recvWithin(t, order, time.Second)
	assert.Equal(t, "X", first, "HIGH process runs before the LOW process that just woke it yields control")
	assert.Equal(t, "Y", second)
}

// Both fatal-condition tests below recover from the panic inside the
// spawned process body itself (instead of relying on Kernel.Fatal()) so
// they can assert on the *KernelError synchronously. This leaves k.mu
// permanently locked — by design, fatal() never releases it — so the
// recovered goroutine wedges forever the moment it tries any further
// kernel call; the test doesn't make one, so it isn't affected.

func Test_BadDestinationIsFatal(t *testing.T) {
	k := newTestKernel()
	caught := make(chan *KernelError, 1)

	k.Spawn("A", 256, P_LOW, func(p *Proc, arg int) {
		defer func() {
			if r := recover(); r != nil {
				caught <- r.(*KernelError)
			}
		}()
		var m Message
		p.Send(99, 0, &m)
	}, 0)

	k.Run()

	kerr := recvWithin(t, caught, time.Second)
	assert.Equal(t, BadDestination, kerr.Kind)
}

func Test_ConnectNegativeIrqIsFatal(t *testing.T) {
	k := newTestKernel()
	caught := make(chan *KernelError, 1)

	k.Spawn("A", 256, P_LOW, func(p *Proc, arg int) {
		defer func() {
			if r := recover(); r != nil {
				caught <- r.(*KernelError)
			}
		}()
		p.Connect(-1)
	}, 0)

	k.Run()

	kerr := recvWithin(t, caught, time.Second)
	assert.Equal(t, BadIrq, kerr.Kind)
}

func Test_StartAfterRunIsFatal(t *testing.T) {
	k := newTestKernel()
	k.Run()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		kerr, ok := r.(*KernelError)
		require.True(t, ok)
		assert.Equal(t, LateStart, kerr.Kind)
	}()
	k.Spawn("late", 64, P_LOW, func(p *Proc, arg int) {}, 0)
}

func Test_ProcessTableExhaustion(t *testing.T) {
	k := NewKernel(Config{
		ArenaSize:     256 * 1024,
		IdleStackSize: 128,
		Console:       NewBufferConsole(),
	})

	// PID 0 is idle; MaxProcs-1 slots remain.
	for i := 0; i < MaxProcs-1; i++ {
		k.Spawn("p", 64, P_LOW, func(p *Proc, arg int) {}, 0)
	}

	assert.Panics(t, func() {
		k.Spawn("one-too-many", 64, P_LOW, func(p *Proc, arg int) {}, 0)
	})
}

func Test_ArenaExhaustionDuringStart(t *testing.T) {
	k := NewKernel(Config{
		ArenaSize:     256,
		IdleStackSize: 64,
		Console:       NewBufferConsole(),
	})

	assert.Panics(t, func() {
		k.Spawn("too-big", 4096, P_LOW, func(p *Proc, arg int) {}, 0)
	})
}
