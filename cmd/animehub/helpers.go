package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"animehub/internal/config"
	"animehub/internal/pipeline"
)

// withLock serializes mutating commands against the data directory, so two
// invocations cannot interleave materialization outside the ledger's
// guarantees.
func withLock(cfg *config.Config, fn func() error) error {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another animehub instance holds the library lock")
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func printReport(out func(format string, a ...any), report *pipeline.Report) {
	out("%d observed, %d resolved, %d unresolvable\n",
		report.Observed, report.Resolved, report.ResolutionFailed)
	out("files: %d applied, %d skipped, %d failed\n",
		report.Files.Applied, report.Files.Skipped, report.Files.Failed)
	out("episodes: %d applied, %d skipped, %d failed\n",
		report.Episodes.Applied, report.Episodes.Skipped, report.Episodes.Failed)
	out("completed in %s\n", report.Duration.Round(time.Millisecond))
}
