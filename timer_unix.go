//go:build unix

package uthreads

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// armTimer configures the real virtual-time interval timer and starts
// the background watcher that turns delivered SIGVTALRM signals into a
// pending-preemption flag. The watcher never calls into the scheduler
// directly -- see scheduler.go's drainPending for why.
func (lib *Library) armTimer(quantumUsecs int) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGVTALRM)
	stop := make(chan struct{})
	lib.timerStop = stop

	go func() {
		for {
			select {
			case <-sigCh:
				lib.preemptPending.Store(true)
			case <-stop:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	tv := unix.NsecToTimeval(int64(quantumUsecs) * 1000)
	it := unix.Itimerval{Value: tv, Interval: tv}
	if err := unix.Setitimer(unix.ITIMER_VIRTUAL, &it, nil); err != nil {
		return fmt.Errorf("setitimer: %w", err)
	}
	return nil
}
