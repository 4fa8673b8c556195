package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/cdnctl/snapdiff/pkg/category"
	"github.com/cdnctl/snapdiff/pkg/metrics"
)

type diffOpts struct {
	*rootOpts
}

func newDiff(root *rootOpts) *diffOpts {
	return &diffOpts{rootOpts: root}
}

func (opts *diffOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff CURRENT PENDING",
		Short: "Show differences between the current and the pending snapshot",
		RunE:  opts.RunE,
	}
	cmd.Flags().StringP("output", "o", "", "(text|json|yaml) whether to output differences in YAML or JSON, or just summarise in text (default text)")
	cmd.Flags().StringSlice("category", nil, "categories to diff, e.g., servers,routers; all of them if not given")
	return cmd
}

func (opts *diffOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errorWantedTwoSnapshots
	}

	var output func(io.Writer, *computed) error
	switch opts.Config.Output {
	case "text":
		output = summarise
	case "json":
		output = func(out io.Writer, c *computed) error {
			bytes, err := json.MarshalIndent(c.document(), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s\n", bytes)
			return err
		}
	case "yaml":
		output = func(out io.Writer, c *computed) error {
			bytes, err := yaml.Marshal(c.document())
			if err != nil {
				return err
			}
			_, err = out.Write(bytes)
			return err
		}
	default:
		return errorInvalidOutputFormat
	}

	result, err := opts.compute(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return output(cmd.OutOrStdout(), result)
}

func summarise(out io.Writer, c *computed) error {
	global := c.global()
	fmt.Fprintf(out, "%s: %s\n", metrics.CategoryConfig, category.PendingChangesStr(global.ChangedFieldCount))
	global.Summarise(out)
	for _, ctrl := range c.controllers {
		fmt.Fprintf(out, "%s: %s\n", ctrl.Name(), category.PendingChangesStr(ctrl))
		ctrl.Result().Summarise(out)
	}
	fmt.Fprintf(out, "%s: %s\n", metrics.CategoryTotal, category.PendingChangesStr(c.total()))
	return nil
}
