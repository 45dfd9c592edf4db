package persona

import (
	_ "embed"
	"io"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownPersona is returned when an id is absent from the registry.
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrConfiguration is returned when the persona table is invalid.
	ErrConfiguration = errors.New("persona configuration error")
)

//go:embed personas.yaml
var defaultPersonas []byte

// RandSource is the random source used by PickPhrase. *rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

// Option configures a Registry.
type Option func(*Registry)

// WithRand injects the random source for phrase selection. Pass a seeded
// *rand.Rand for reproducible tests.
func WithRand(r RandSource) Option {
	return func(reg *Registry) { reg.rng = r }
}

// WithDefault overrides the default persona id.
func WithDefault(id string) Option {
	return func(reg *Registry) { reg.defaultID = id }
}

// WithLogger sets the registry logger.
func WithLogger(l *log.Logger) Option {
	return func(reg *Registry) { reg.logger = l }
}

// Registry is the read-only table of personas. Only the random source is
// mutable and it is guarded by a mutex, so one Registry can serve many sessions.
type Registry struct {
	profiles  map[string]*Profile
	order     []string
	defaultID string
	logger    *log.Logger

	mu  sync.Mutex
	rng RandSource
}

// File is the on-disk shape of a persona table.
type File struct {
	Default  string    `yaml:"default"`
	Personas []Profile `yaml:"personas"`
}

// New validates the profiles and builds a registry. The first profile is the
// default unless File.Default or WithDefault says otherwise.
func New(profiles []Profile, opts ...Option) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, errors.Wrap(ErrConfiguration, "no personas defined")
	}

	reg := &Registry{
		profiles: make(map[string]*Profile, len(profiles)),
		logger:   log.New(io.Discard),
	}
	for i := range profiles {
		p := profiles[i]
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := reg.profiles[p.ID]; dup {
			return nil, errors.Wrapf(ErrConfiguration, "duplicate persona id %q", p.ID)
		}
		reg.profiles[p.ID] = &p
		reg.order = append(reg.order, p.ID)
	}
	reg.defaultID = reg.order[0]

	for _, opt := range opts {
		opt(reg)
	}
	if _, ok := reg.profiles[reg.defaultID]; !ok {
		return nil, errors.Wrapf(ErrConfiguration, "default persona %q not defined", reg.defaultID)
	}
	if reg.rng == nil {
		reg.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	reg.logger.Debug("Persona registry loaded", "count", len(reg.order), "default", reg.defaultID)
	return reg, nil
}

// Load parses a YAML persona table.
func Load(data []byte, opts ...Option) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "parse persona table: %v", err)
	}
	if f.Default != "" {
		opts = append([]Option{WithDefault(f.Default)}, opts...)
	}
	return New(f.Personas, opts...)
}

// LoadFile reads a YAML persona table from disk.
func LoadFile(path string, opts ...Option) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "read persona table %s: %v", path, err)
	}
	return Load(data, opts...)
}

// LoadDefault loads the embedded persona table.
func LoadDefault(opts ...Option) (*Registry, error) {
	return Load(defaultPersonas, opts...)
}

// Get returns the profile for id. The returned profile must not be modified.
func (r *Registry) Get(id string) (*Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPersona, "persona %q", id)
	}
	return p, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.profiles[id]
	return ok
}

// List returns all persona ids sorted alphabetically.
func (r *Registry) List() []string {
	ids := lo.Keys(r.profiles)
	sort.Strings(ids)
	return ids
}

// Default returns the default persona id.
func (r *Registry) Default() string {
	return r.defaultID
}

// PickPhrase selects uniformly from the persona's pool for category.
func (r *Registry) PickPhrase(id string, category Category) (string, error) {
	p, err := r.Get(id)
	if err != nil {
		return "", err
	}
	pool := p.Pool(category)
	if len(pool) == 0 {
		return "", errors.Wrapf(ErrConfiguration, "persona %q has no phrases for %q", id, category)
	}

	r.mu.Lock()
	idx := r.rng.Intn(len(pool))
	r.mu.Unlock()

	return pool[idx], nil
}
