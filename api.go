package uthreads

import (
	"os"
	"runtime"
)

// Init initializes the thread library: it resets the thread table,
// binds slot 0 to the calling goroutine as the main thread, and arms the
// virtual-time interval timer at quantumUsecs microseconds. It must be
// called exactly once, before any other function in this package, and
// never again afterwards.
//
// Returns 0 on success, -1 on invalid input or a repeated call.
func Init(quantumUsecs int) int {
	defer lib.drainPending()

	lib.mu.Lock()
	if lib.initialized {
		lib.mu.Unlock()
		return libError("thread library already initialized")
	}
	if quantumUsecs < 1 {
		lib.mu.Unlock()
		return libError("quantum_usecs must be positive")
	}

	lib.threads = [MaxThreadNum]threadRecord{}
	lib.blocked = make(map[int]struct{})
	lib.ready = newReadyQueue()
	lib.primeMain()
	lib.runningTid = 0
	lib.threads[0].quantum = 1
	lib.initialized = true
	lib.mu.Unlock()

	if err := lib.armTimer(quantumUsecs); err != nil {
		sysError(err.Error())
		return -1
	}
	return 0
}

// Spawn allocates the lowest free thread id, primes it to run entry, and
// appends it to READY. Spawning is not itself a quantum boundary: the
// new thread simply waits its turn.
//
// Returns the new thread's id on success, -1 if entry is nil or the
// thread table is full.
func Spawn(entry func()) int {
	defer lib.drainPending()

	if entry == nil {
		return libError("invalid entry point")
	}

	lib.mu.Lock()
	tid, ok := lib.allocateSlotLocked()
	if !ok {
		lib.mu.Unlock()
		return libError("maximum number of threads already exists")
	}
	lib.primeSlot(tid, entry)
	lib.ready.Enqueue(tid)
	lib.mu.Unlock()
	return tid
}

// Terminate removes tid from the library. Terminating slot 0 (the main
// thread) releases every slot and ends the process; this call never
// returns in that case. Terminating the RUNNING thread releases its
// slot, switches to whichever thread is chosen next, and ends the
// calling goroutine; this call never returns in that case either.
//
// Returns 0 on success, -1 if tid does not name a currently allocated
// thread.
func Terminate(tid int) int {
	lib.mu.Lock()
	if !lib.isValidLocked(tid) {
		lib.mu.Unlock()
		return libError("invalid thread id")
	}

	if tid == 0 {
		lib.releaseAllLocked()
		lib.mu.Unlock()
		os.Exit(0)
	}

	self := tid == lib.runningTid
	lib.ready.Remove(tid)
	delete(lib.blocked, tid)
	lib.freeSlotLocked(tid, !self)

	if !self {
		lib.mu.Unlock()
		lib.drainPending()
		return 0
	}

	next, ok := lib.ready.Dequeue()
	if !ok {
		lib.mu.Unlock()
		sysError("scheduler ready queue exhausted")
		return -1
	}
	lib.threads[next].quantum++
	lib.tickSleepersLocked()
	lib.runningTid = next
	wake := lib.threads[next].wake
	lib.mu.Unlock()

	wake <- struct{}{}
	runtime.Goexit()
	return 0 // unreachable
}

// Block moves tid to BLOCKED, removing it from READY if present. If tid
// is the RUNNING thread, this switches away from it immediately. The
// main thread (tid 0) cannot be blocked.
//
// Returns 0 on success, -1 if tid does not name a currently allocated,
// non-main thread.
func Block(tid int) int {
	defer lib.drainPending()

	lib.mu.Lock()
	if !lib.isValidLocked(tid) || tid == 0 {
		lib.mu.Unlock()
		return libError("invalid thread id for block")
	}
	lib.ready.Remove(tid)
	lib.blocked[tid] = struct{}{}
	self := tid == lib.runningTid
	lib.mu.Unlock()

	if self {
		lib.yield(false)
	}
	return 0
}

// Resume moves tid out of BLOCKED. If it is not also sleeping, it
// re-enters READY; resuming a thread that was never blocked, or that is
// still sleeping, is a harmless no-op beyond clearing the BLOCKED flag.
//
// Returns 0 on success, -1 if tid does not name a currently allocated
// thread.
func Resume(tid int) int {
	defer lib.drainPending()

	lib.mu.Lock()
	defer lib.mu.Unlock()
	if !lib.isValidLocked(tid) {
		return libError("invalid thread id for resume")
	}
	_, wasBlocked := lib.blocked[tid]
	delete(lib.blocked, tid)
	if wasBlocked && lib.threads[tid].sleepFor == 0 {
		lib.ready.Enqueue(tid)
	}
	return 0
}

// Sleep puts the calling thread to sleep for numQuantums quantum
// boundaries and switches away from it immediately; it is restored to
// READY once its countdown lapses, provided it is not also BLOCKED. A
// count of 0 goes straight back to the tail of READY. The main thread
// (tid 0) cannot sleep.
//
// Returns 0 on success, -1 for a negative count or a call from the main
// thread.
func Sleep(numQuantums int) int {
	defer lib.drainPending()

	lib.mu.Lock()
	if lib.runningTid == 0 {
		lib.mu.Unlock()
		return libError("main thread cannot sleep")
	}
	if numQuantums < 0 {
		lib.mu.Unlock()
		return libError("invalid input")
	}
	lib.threads[lib.runningTid].sleepFor = numQuantums
	lib.mu.Unlock()

	lib.yield(numQuantums == 0)
	return 0
}

// GetTid returns the id of the currently RUNNING thread.
func GetTid() int {
	defer lib.drainPending()
	lib.mu.Lock()
	defer lib.mu.Unlock()
	return lib.runningTid
}

// GetTotalQuantums returns the sum of the quantum counts of the currently
// allocated threads, summed fresh on each call rather than tracked by a
// separate running counter. A terminated thread's count is zeroed along
// with the rest of its slot, so it stops contributing the moment it is
// freed; after any Terminate the result is therefore smaller than the
// number of quantums elapsed since Init.
func GetTotalQuantums() int {
	defer lib.drainPending()
	lib.mu.Lock()
	defer lib.mu.Unlock()
	total := 0
	for i := range lib.threads {
		total += lib.threads[i].quantum
	}
	return total
}

// GetQuantums returns the number of quantums tid has been RUNNING for,
// including its current one if it is the RUNNING thread.
//
// Returns -1 if tid does not name a currently allocated thread.
func GetQuantums(tid int) int {
	defer lib.drainPending()
	lib.mu.Lock()
	defer lib.mu.Unlock()
	if !lib.isValidLocked(tid) {
		return libError("invalid thread id")
	}
	return lib.threads[tid].quantum
}
