package arc

import (
	"fmt"
	"math"
	"os"
)

// maxRefs bounds both counters. A pre-increment count above it means
// handles are being leaked at a rate no legitimate program reaches; letting
// the counter keep climbing toward wraparound would eventually make the
// zero transition fire while handles are still alive.
const maxRefs = math.MaxInt64 / 2

// fatal reports an unrecoverable reference counting violation and
// terminates the process. It is not a panic: deferred functions do not run
// and recover cannot intercept it.
//
// Tests in this package replace it.
var fatal = func(msg string) {
	fmt.Fprintf(os.Stderr, "arc: %s\n", msg)
	os.Exit(2)
}

// checkRetain trips fatal if old, the value a counter held before an
// increment, exceeds maxRefs.
func checkRetain(old int64) {
	if old > maxRefs {
		fatal("reference count overflow")
	}
}

// checkRelease trips fatal if n, the value a counter holds after a
// decrement, is negative.
func checkRelease(n int64) {
	if n < 0 {
		fatal("reference count underflow")
	}
}
