package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cdnctl/snapdiff/pkg/category"
	"github.com/cdnctl/snapdiff/pkg/metrics"
)

type countOpts struct {
	*rootOpts
}

func newCount(root *rootOpts) *countOpts {
	return &countOpts{rootOpts: root}
}

func (opts *countOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count CURRENT PENDING",
		Short: "Count the changes pending in each category",
		RunE:  opts.RunE,
	}
	cmd.Flags().StringSlice("category", nil, "categories to count, e.g., servers,routers; all of them if not given")
	return cmd
}

func (opts *countOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errorWantedTwoSnapshots
	}

	result, err := opts.compute(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(out, "CATEGORY\tPENDING")
	fmt.Fprintf(out, "%s\t%s\n", metrics.CategoryConfig, category.PendingChangesStr(result.global().ChangedFieldCount))
	for _, ctrl := range result.controllers {
		fmt.Fprintf(out, "%s\t%s\n", ctrl.Name(), category.PendingChangesStr(ctrl))
	}
	fmt.Fprintf(out, "%s\t%s\n", metrics.CategoryTotal, category.PendingChangesStr(result.total()))
	return out.Flush()
}
