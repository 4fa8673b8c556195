package main

import (
	"errors"

	"github.com/spf13/cobra"

	snaperrors "github.com/cdnctl/snapdiff/pkg/errors"
)

type usageError struct {
	error
}

func (e usageError) Unwrap() error {
	return e.error
}

func newUsageError(msg string) usageError {
	return usageError{error: errors.New(msg)}
}

var errorWantedTwoSnapshots = newUsageError("please supply the current and the pending snapshot files")
var errorInvalidOutputFormat = newUsageError("output format --output,-o must be 'text', 'json' or 'yaml'")

// reportError prints err for the user: its help if it has any, the
// usage if they got the command wrong, and a general plea otherwise.
func reportError(cmd *cobra.Command, err error) {
	var helpful *snaperrors.Error
	_, isUsage := err.(usageError)
	switch {
	case errors.As(err, &helpful):
		cmd.PrintErrln("Error: " + err.Error())
		cmd.PrintErrln("")
		cmd.PrintErr(helpful.Help)
	case isUsage:
		cmd.PrintErrln("Error: " + err.Error())
	default:
		cmd.PrintErr(snaperrors.CoverAllError(err).Help)
	}
	if isUsage {
		cmd.PrintErrln("")
		cmd.PrintErrln(cmd.UsageString())
	}
}
