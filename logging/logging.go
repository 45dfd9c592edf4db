// Package logging builds the charmbracelet/log loggers used across the SDK.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// New creates the base logger. level is a charmbracelet level name
// ("debug", "info", "warn", "error"); empty means info.
func New(w io.Writer, level string) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl := log.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", level)
		}
		lvl = parsed
	}
	return log.NewWithOptions(w, log.Options{
		ReportCaller:    lvl == log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           lvl,
	}), nil
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseComponentLevels parses "memory=debug,store=warn" into a map.
func ParseComponentLevels(expr string) (map[string]log.Level, error) {
	levels := map[string]log.Level{}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Errorf("component level %q: want component=level", part)
		}
		lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
		if err != nil {
			return nil, errors.Wrapf(err, "component %s", name)
		}
		levels[name] = lvl
	}
	return levels, nil
}

// Factory provides component-aware loggers with consistent field naming.
type Factory struct {
	base   *log.Logger
	levels map[string]log.Level

	mu    sync.Mutex
	cache map[string]*log.Logger
}

// NewFactory creates a factory. levels overrides the base level per component.
func NewFactory(base *log.Logger, levels map[string]log.Level) *Factory {
	if base == nil {
		base = Discard()
	}
	if levels == nil {
		levels = map[string]log.Level{}
	}
	return &Factory{base: base, levels: levels, cache: map[string]*log.Logger{}}
}

// ForComponent returns the logger for a component, tagged with its id.
func (f *Factory) ForComponent(id string) *log.Logger {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.cache[id]; ok {
		return l
	}
	l := f.base.With("component", id)
	if lvl, ok := f.levels[id]; ok {
		l.SetLevel(lvl)
	}
	f.cache[id] = l
	return l
}

// Base returns the unscoped logger.
func (f *Factory) Base() *log.Logger { return f.base }
