package uthreads

import (
	"fmt"
	"os"
)

// libError reports a caller-facing usage error in the mandated one-line
// format and returns the library's -1 failure code, ready to be returned
// directly from the calling public API function.
func libError(reason string) int {
	fmt.Fprintln(os.Stderr, "thread library error: "+reason)
	return -1
}

// sysError reports an internal invariant violation -- something that
// should be impossible given correct use of the public API -- and
// terminates the process, mirroring how the original library treats a
// failed system call as unrecoverable.
func sysError(reason string) {
	fmt.Fprintln(os.Stderr, "system error: "+reason)
	os.Exit(1)
}
