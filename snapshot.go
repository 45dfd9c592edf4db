package companion

import (
	"time"

	"github.com/pkg/errors"
)

// SnapshotVersion is the snapshot schema written by this package.
const SnapshotVersion = 1

// ErrUnsupportedSnapshot is returned for snapshots written by a newer schema.
var ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")

// Snapshot is the plain-data form of a session handed to Persistence.
type Snapshot struct {
	Version      int               `json:"version" yaml:"version"`
	SessionID    string            `json:"session_id" yaml:"sessionId"`
	Relationship RelationshipState `json:"relationship" yaml:"relationship"`
	Memories     []MemoryRecord    `json:"memories" yaml:"memories"`
	SavedAt      time.Time         `json:"saved_at" yaml:"savedAt"`
}

// Validate checks the schema version. Version 0 is read as 1.
func (s *Snapshot) Validate() error {
	if s.Version > SnapshotVersion {
		return errors.Wrapf(ErrUnsupportedSnapshot, "version %d (max %d)", s.Version, SnapshotVersion)
	}
	if s.Version < 0 {
		return errors.Wrapf(ErrUnsupportedSnapshot, "version %d", s.Version)
	}
	return nil
}

// Normalize puts the snapshot in its canonical form: times in UTC without a
// monotonic reading and nil slices replaced by empty ones, so every encoding
// round-trips to an equal value.
func (s *Snapshot) Normalize() *Snapshot {
	if s.Version == 0 {
		s.Version = SnapshotVersion
	}
	s.SavedAt = canonicalTime(s.SavedAt)

	rel := &s.Relationship
	rel.LastInteractionAt = canonicalTime(rel.LastInteractionAt)
	if rel.MilestonesReached == nil {
		rel.MilestonesReached = []int{}
	}
	if rel.RecentSignals == nil {
		rel.RecentSignals = []Signal{}
	}
	for i := range rel.RecentSignals {
		rel.RecentSignals[i].Timestamp = canonicalTime(rel.RecentSignals[i].Timestamp)
	}

	if s.Memories == nil {
		s.Memories = []MemoryRecord{}
	}
	for i := range s.Memories {
		s.Memories[i].CreatedAt = canonicalTime(s.Memories[i].CreatedAt)
		s.Memories[i].LastAccessedAt = canonicalTime(s.Memories[i].LastAccessedAt)
	}
	return s
}

func canonicalTime(t time.Time) time.Time {
	return t.Round(0).UTC()
}
