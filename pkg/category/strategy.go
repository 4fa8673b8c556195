// Package category diffs one entity section of a pair of snapshots at
// a time, and keeps that diff current as new pairs arrive.
package category

import (
	"fmt"
	"sort"

	"github.com/cdnctl/snapdiff/pkg/errors"
	"github.com/cdnctl/snapdiff/pkg/record"
	"github.com/cdnctl/snapdiff/pkg/snapshot"
)

// Strategy is what a category contributes to a Controller: a name and
// a way to pick its entities out of a snapshot. Everything else (the
// diffing, the state, the listener) is shared.
type Strategy interface {
	Name() string
	Extract(*snapshot.Snapshot) (record.EntityMap, error)
}

type sectionStrategy struct {
	name    string
	section snapshot.Section
}

// ForSection returns a strategy which extracts one entity section of a
// snapshot.
func ForSection(name string, section snapshot.Section) Strategy {
	return sectionStrategy{name: name, section: section}
}

func (s sectionStrategy) Name() string {
	return s.name
}

func (s sectionStrategy) Extract(snap *snapshot.Snapshot) (record.EntityMap, error) {
	return snap.Entities(s.section)
}

func (s sectionStrategy) String() string {
	return fmt.Sprintf("%s (%s)", s.name, s.section)
}

var (
	ContentRouters         = ForSection("routers", snapshot.ContentRouters)
	ContentServers         = ForSection("servers", snapshot.ContentServers)
	DeliveryServices       = ForSection("deliveryServices", snapshot.DeliveryServices)
	EdgeLocations          = ForSection("edgeLocations", snapshot.EdgeLocations)
	Monitors               = ForSection("monitors", snapshot.Monitors)
	TrafficRouterLocations = ForSection("routerLocations", snapshot.TrafficRouterLocations)
	Topologies             = ForSection("topologies", snapshot.Topologies)
)

// Builtin returns the strategies for every entity section of a
// snapshot, in presentation order.
func Builtin() []Strategy {
	return []Strategy{
		ContentRouters,
		ContentServers,
		DeliveryServices,
		EdgeLocations,
		Monitors,
		TrafficRouterLocations,
		Topologies,
	}
}

func UnknownCategoryError(name string) *errors.Error {
	var names []string
	for _, s := range Builtin() {
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return &errors.Error{
		Type: errors.User,
		Err:  fmt.Errorf("no category matches %q", name),
		Help: fmt.Sprintf(`No category matches %q.

The known categories are %v. Each may also be named by its snapshot
section, e.g., "contentServers" for "servers", and by a glob such as
"*Locations" or a regular expression such as "regexp:^content".
`, name, names),
	}
}
