package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// usageError marks bad arguments, as opposed to content failures.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func errUsage(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// usageArgs reports a failed positional argument check as a usage error.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{msg: err.Error()}
		}
		return nil
	}
}

func flagUsageError(_ *cobra.Command, err error) error {
	return &usageError{msg: err.Error()}
}
