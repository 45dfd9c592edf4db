// Package store provides Persistence backends for companion sessions:
// in-memory, file (JSON or YAML), Redis and SQLite.
package store

import (
	"encoding/json"
	"regexp"

	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/pkg/errors"
)

// ErrInvalidSessionID is returned for ids that are empty or unsafe as keys.
var ErrInvalidSessionID = errors.New("invalid session id")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateSessionID rejects ids that could escape a directory or key prefix.
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return errors.Wrapf(ErrInvalidSessionID, "%q", id)
	}
	return nil
}

// encodeSnapshot normalizes then marshals a snapshot to JSON.
func encodeSnapshot(snap *companion.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, errors.New("nil snapshot")
	}
	data, err := json.Marshal(normalizedCopy(snap))
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	return data, nil
}

// normalizedCopy returns a canonical copy without touching the caller's slices.
func normalizedCopy(snap *companion.Snapshot) *companion.Snapshot {
	cp := *snap
	cp.Relationship = snap.Relationship.Clone()
	cp.Memories = append([]companion.MemoryRecord{}, snap.Memories...)
	return cp.Normalize()
}

func decodeSnapshot(data []byte) (*companion.Snapshot, error) {
	var snap companion.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap.Normalize(), nil
}

// Compile-time interface checks.
var (
	_ companion.Persistence = (*Memory)(nil)
	_ companion.Persistence = (*File)(nil)
	_ companion.Persistence = (*Redis)(nil)
	_ companion.Persistence = (*SQLite)(nil)
)
