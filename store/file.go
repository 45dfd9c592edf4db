package store

import (
	"context"
	"os"
	"path/filepath"

	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// File persists one snapshot per session on disk.
// Layout: {dir}/{session_id}.json or {dir}/{session_id}.yaml
type File struct {
	dir    string
	format string
}

// NewFile creates a file store rooted at dir. format is "json" or "yaml".
func NewFile(dir, format string) (*File, error) {
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatYAML {
		return nil, errors.Errorf("unsupported file format %q", format)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	return &File{dir: dir, format: format}, nil
}

func (f *File) path(sessionID string) string {
	return filepath.Join(f.dir, sessionID+"."+f.format)
}

func (f *File) Load(_ context.Context, sessionID string) (*companion.Snapshot, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}

	if f.format == FormatJSON {
		return decodeSnapshot(data)
	}
	var snap companion.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "unmarshal yaml snapshot")
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap.Normalize(), nil
}

// Save writes to a temp file and renames it over the old snapshot.
func (f *File) Save(_ context.Context, sessionID string, snap *companion.Snapshot) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if f.format == FormatJSON {
		data, err = encodeSnapshot(snap)
	} else {
		if snap == nil {
			return errors.New("nil snapshot")
		}
		data, err = yaml.Marshal(normalizedCopy(snap))
		err = errors.Wrap(err, "marshal yaml snapshot")
	}
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+sessionID+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	if err := os.Rename(tmp.Name(), f.path(sessionID)); err != nil {
		return errors.Wrap(err, "rename snapshot")
	}
	return nil
}
