// Package snapshot holds point-in-time captures of a CDN's deployed
// (current) or staged (pending) configuration, and knows how to read
// them from JSON or YAML documents.
package snapshot

import (
	"github.com/cdnctl/snapdiff/pkg/errors"
	"github.com/cdnctl/snapdiff/pkg/record"
)

// Section names a top-level part of a snapshot document.
type Section string

const (
	Config                 Section = "config"
	ContentRouters         Section = "contentRouters"
	ContentServers         Section = "contentServers"
	DeliveryServices       Section = "deliveryServices"
	EdgeLocations          Section = "edgeLocations"
	Monitors               Section = "monitors"
	TrafficRouterLocations Section = "trafficRouterLocations"
	Topologies             Section = "topologies"
	Stats                  Section = "stats"
)

// EntitySections are the sections keyed by entity, in presentation
// order.
var EntitySections = []Section{
	ContentRouters,
	ContentServers,
	DeliveryServices,
	EdgeLocations,
	Monitors,
	TrafficRouterLocations,
	Topologies,
}

// Optional reports whether a section may be left out of a snapshot.
// Topologies were introduced after the other sections, so older
// snapshots don't have them; an absent topologies section means there
// are none.
func (s Section) Optional() bool {
	return s == Topologies || s == Stats
}

func (s Section) String() string {
	return string(s)
}

// Snapshot is immutable once built; nothing in this module writes to
// one after Parse returns.
type Snapshot struct {
	Config   record.Record
	Sections map[Section]record.EntityMap
	// Stats is descriptive only and never diffed.
	Stats StatsInfo
}

// StatsInfo describes where and when a snapshot was taken.
type StatsInfo struct {
	CDNName   string `json:"CDN_name,omitempty" yaml:"CDN_name,omitempty"`
	Date      int64  `json:"date,omitempty" yaml:"date,omitempty"`
	TMHost    string `json:"tm_host,omitempty" yaml:"tm_host,omitempty"`
	TMPath    string `json:"tm_path,omitempty" yaml:"tm_path,omitempty"`
	TMUser    string `json:"tm_user,omitempty" yaml:"tm_user,omitempty"`
	TMVersion string `json:"tm_version,omitempty" yaml:"tm_version,omitempty"`
}

// Pair is a current and a pending snapshot, handed over together once
// both are available.
type Pair struct {
	Current *Snapshot
	Pending *Snapshot
}

// GlobalConfig returns the flat config section.
func (s *Snapshot) GlobalConfig() (record.Record, error) {
	if s == nil || s.Config == nil {
		return nil, errors.MissingSection(string(Config))
	}
	return s.Config, nil
}

// Entities returns an entity section. A required section that is not
// present is an error rather than an empty map.
func (s *Snapshot) Entities(section Section) (record.EntityMap, error) {
	if section == Config || section == Stats {
		return nil, errors.MalformedSection(string(section), errNotEntitySection)
	}
	if s != nil {
		if m, ok := s.Sections[section]; ok {
			if m == nil {
				m = record.EntityMap{}
			}
			return m, nil
		}
	}
	if section.Optional() {
		return record.EntityMap{}, nil
	}
	return nil, errors.MissingSection(string(section))
}
