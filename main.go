// log2src maps log lines back to the source statements that emitted them.
package main

import (
	"os"

	"github.com/ttiimm/log2src/cmd"
	"github.com/ttiimm/log2src/internal/sentry"
	"github.com/ttiimm/log2src/internal/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Defers run LIFO: RecoverAndPanic is deferred first so the cleanup
	// flush happens before the re-panic.
	defer sentry.RecoverAndPanic()
	cleanup := sentry.Init(cmd.Version)
	defer cleanup()

	if err := cmd.Execute(); err != nil {
		sentry.CaptureError(err)
		tui.Errorf("%v", err)
		return 1
	}
	return 0
}
