package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"buildlog/internal/correlation"
)

// Exit codes: 1 for operational failures, 2 when the event stream itself
// broke start/finish pairing.
const (
	exitFailure   = 1
	exitViolation = 2
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(exitFailure)
		}
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, correlation.ErrCorrelationViolation) {
			os.Exit(exitViolation)
		}
		os.Exit(exitFailure)
	}
}
