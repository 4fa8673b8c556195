package snapshot

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version parses the version of the software which produced the
// snapshot.
func (s StatsInfo) Version() (*semver.Version, error) {
	return semver.NewVersion(s.TMVersion)
}

// CheckVersions complains when two snapshots were produced by
// different major versions, since sections may have changed shape
// between them. Snapshots without a parseable version are not checked.
func CheckVersions(current, pending *Snapshot) error {
	if current == nil || pending == nil {
		return nil
	}
	cv, err := current.Stats.Version()
	if err != nil {
		return nil
	}
	pv, err := pending.Stats.Version()
	if err != nil {
		return nil
	}
	if cv.Major() != pv.Major() {
		return fmt.Errorf("current snapshot was produced by version %s and pending snapshot by %s; differences may be due to the upgrade", cv, pv)
	}
	return nil
}
