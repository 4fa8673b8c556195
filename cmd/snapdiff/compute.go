package main

import (
	"context"

	"github.com/cdnctl/snapdiff/pkg/aggregate"
	"github.com/cdnctl/snapdiff/pkg/category"
	"github.com/cdnctl/snapdiff/pkg/diff"
	"github.com/cdnctl/snapdiff/pkg/snapshot"
)

// computed is everything the one-shot commands print.
type computed struct {
	aggregate   *aggregate.Aggregator
	controllers []*category.Controller
}

// compute diffs the two snapshot files. Categories are computed in
// turn rather than subscribed, so every count has been reported by
// the time it returns.
func (opts *rootOpts) compute(ctx context.Context, currentPath, pendingPath string) (*computed, error) {
	strategies, err := opts.strategies()
	if err != nil {
		return nil, err
	}

	agg := aggregate.New(snapshot.Files{CurrentPath: currentPath, PendingPath: pendingPath}, opts.Logger)
	if err := agg.Refresh(ctx); err != nil {
		return nil, err
	}
	pair, _ := agg.Pair()

	result := &computed{aggregate: agg}
	for _, s := range strategies {
		c := category.New(s, agg.Report, opts.Logger)
		if err := c.OnSnapshots(pair); err != nil {
			return nil, err
		}
		result.controllers = append(result.controllers, c)
	}
	return result, nil
}

func (c *computed) global() diff.RecordDiff {
	d, _ := c.aggregate.GlobalDiff()
	return d
}

func (c *computed) total() int {
	n, _ := c.aggregate.TotalChangesPending()
	return n
}

// document is the shape of the JSON and YAML output.
type document struct {
	Config              diff.RecordDiff            `json:"config" yaml:"config"`
	Categories          map[string]diff.EntityDiff `json:"categories" yaml:"categories"`
	TotalChangesPending int                        `json:"totalChangesPending" yaml:"totalChangesPending"`
}

func (c *computed) document() document {
	doc := document{
		Config:              c.global(),
		Categories:          map[string]diff.EntityDiff{},
		TotalChangesPending: c.total(),
	}
	for _, ctrl := range c.controllers {
		doc.Categories[ctrl.Name()] = ctrl.Result()
	}
	return doc
}
