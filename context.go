package uthreads

import "runtime"

// primeSlot is the Go-native stand-in for priming a saved execution
// context: it allocates the slot's bookkeeping stack buffer and starts
// the goroutine that will run entry once the scheduler first restores
// into this tid. The goroutine parks immediately on its own wake channel
// -- it does not run a single instruction of entry until switchTo hands
// it the baton.
//
// A thread can be Terminated by another thread before it has ever run a
// single instruction (it is still sitting in READY). Go gives no way for
// one goroutine to reach into another and force it to stop, so that case
// is signaled by closing wake rather than sending on it: the parked
// receive below unblocks with ok == false and the goroutine exits
// without ever calling entry.
func (lib *Library) primeSlot(tid int, entry func()) {
	rec := &lib.threads[tid]
	rec.allocated = true
	rec.stack = make([]byte, StackSize)
	rec.sleepFor = 0
	rec.entry = entry
	rec.wake = make(chan struct{})
	wake := rec.wake

	go func() {
		if _, ok := <-wake; !ok {
			return
		}
		entry()
		// entry returned on its own without calling Terminate: treat
		// exactly like a self-terminate.
		Terminate(tid)
	}()
}

// primeMain binds slot 0 to the goroutine calling Init. There is no
// separate goroutine to start and no stack buffer to own -- the host
// goroutine's own stack plays that role for the lifetime of the library.
func (lib *Library) primeMain() {
	rec := &lib.threads[0]
	rec.allocated = true
	rec.stack = nil
	rec.sleepFor = 0
	rec.wake = make(chan struct{})
}

// switchTo hands the scheduling baton from the calling goroutine (slot
// from, assumed to be the one invoking it) to slot to, then parks from
// until some future scheduling decision restores it. It never returns to
// its caller before that happens -- the Go-native equivalent of
// RestoreContext not returning to SaveContext's caller.
//
// The degenerate case from == to (the sole READY entrant rescheduling
// itself) is a fast no-op: there is nothing to hand off.
//
// If from is Terminated by some other thread while parked here -- the
// only way a BLOCKED or SLEEPING thread can be killed from the outside,
// since nothing else can reach into its goroutine -- its wake channel is
// closed rather than sent to. The parked receive then unblocks with
// ok == false, and runtime.Goexit unwinds this goroutine out of whatever
// user code called Block/Sleep/Checkpoint, instead of letting it resume.
func (lib *Library) switchTo(from, to int) {
	if from == to {
		return
	}
	wake := lib.threads[from].wake
	lib.threads[to].wake <- struct{}{}
	if _, ok := <-wake; !ok {
		runtime.Goexit()
	}
}
