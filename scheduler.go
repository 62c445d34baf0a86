package uthreads

// yield is the scheduler's one scheduling decision. reinsert controls
// whether the calling (currently RUNNING) thread goes to the tail of
// READY before the next thread is chosen -- exactly the reinsert flag of
// the original yield(bool) contract.
//
// Steps, matching that contract: conditionally reinsert the caller,
// pop the new head of READY, bump its quantum counter, tick every
// sleeping thread's countdown, make it RUNNING, then switch to it.
func (lib *Library) yield(reinsert bool) {
	lib.mu.Lock()
	cur := lib.runningTid
	if reinsert {
		lib.ready.Enqueue(cur)
	}
	next, ok := lib.ready.Dequeue()
	if !ok {
		lib.mu.Unlock()
		sysError("scheduler ready queue exhausted")
		return
	}
	lib.threads[next].quantum++
	lib.tickSleepersLocked()
	lib.runningTid = next
	lib.mu.Unlock()

	lib.switchTo(cur, next)
}

// tickSleepersLocked advances every sleeping thread's countdown by one
// quantum boundary. A thread whose countdown reaches zero and that is
// not also BLOCKED re-enters READY at the same tick that retires it.
// Caller must hold lib.mu.
func (lib *Library) tickSleepersLocked() {
	for i := 0; i < MaxThreadNum; i++ {
		rec := &lib.threads[i]
		if !rec.allocated || rec.sleepFor <= 0 {
			continue
		}
		if rec.sleepFor == 1 {
			if _, blocked := lib.blocked[i]; !blocked {
				lib.ready.Enqueue(i)
			}
		}
		rec.sleepFor--
	}
}

// drainPending replays, as an ordinary yield, a preemption the virtual
// timer raised while the calling public function was doing its own work.
// Go cannot reach into another goroutine and force it off the CPU the
// way SIGVTALRM forces a C thread off the CPU, so the timer handler
// (timer_unix.go) only ever raises this flag; every public API call
// except Terminate drains it on the way out (Terminate drains it only when
// it returns 0 after freeing another thread), and Checkpoint lets a
// thread body drain it from inside a long-running loop too.
func (lib *Library) drainPending() {
	if lib.preemptPending.CompareAndSwap(true, false) {
		lib.yield(true)
	}
}

// Checkpoint gives a thread body a place to honor a pending preemption
// without waiting for its next library call. A tight, library-call-free
// loop in a spawned thread's entry function should call this
// periodically, or it will run uninterrupted until it does make a
// library call.
func Checkpoint() {
	lib.drainPending()
}
