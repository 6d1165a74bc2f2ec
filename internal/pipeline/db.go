package pipeline

import (
	"fmt"
	"os"
)

// DBState classifies a structure database prefix on disk.
//
// foldseek writes several artifacts per database; only the .dbtype marker
// is treated as the completion signal. Anything else present without it is
// a leftover from an interrupted build.
type DBState int

const (
	DBAbsent DBState = iota
	DBPartial
	DBComplete
)

func (s DBState) String() string {
	switch s {
	case DBAbsent:
		return "absent"
	case DBPartial:
		return "partial"
	case DBComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// dbMarkers returns every artifact foldseek createdb may leave at prefix.
// The sub-stores (_h headers, _ss secondary structure, _ca coordinates)
// each carry their own .dbtype and .index companions.
func dbMarkers(prefix string) []string {
	markers := []string{
		prefix,
		prefix + ".lookup",
		prefix + ".dbtype",
		prefix + ".index",
	}
	for _, store := range []string{"_h", "_ss", "_ca"} {
		markers = append(markers,
			prefix+store,
			prefix+store+".dbtype",
			prefix+store+".index",
		)
	}
	return markers
}

// InspectDB reports the database state at prefix. Complete requires the
// .dbtype marker; any other marker alone means Partial.
func InspectDB(prefix string) DBState {
	if _, err := os.Stat(prefix + ".dbtype"); err == nil {
		return DBComplete
	}
	for _, m := range dbMarkers(prefix) {
		if _, err := os.Stat(m); err == nil {
			return DBPartial
		}
	}
	return DBAbsent
}

// WipeDB removes every known marker artifact at prefix. Markers that do
// not exist are not an error.
func WipeDB(prefix string) error {
	for _, m := range dbMarkers(prefix) {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cannot remove %s: %w", m, err)
		}
	}
	return nil
}
