package bakeao

import (
	"fmt"

	"github.com/goliatone/go-bakeao/pkg/activity"
	"github.com/goliatone/go-bakeao/pkg/asset"
	"github.com/goliatone/go-bakeao/pkg/state"
)

// Domain is the state domain settings are persisted under.
const Domain = "bakeao"

// DefaultRef is where settings live when no project is given.
func DefaultRef() state.Ref {
	return state.Ref{Domain: Domain, Project: state.DefaultProject}
}

// RemapEntry switches materials using Source to Target when baking AO.
type RemapEntry struct {
	Source asset.ID `json:"nonBakeAOShader" yaml:"nonBakeAOShader" toml:"nonBakeAOShader"`
	Target asset.ID `json:"bakeAOShader" yaml:"bakeAOShader" toml:"bakeAOShader"`
}

// Snapshot is the persisted form of Settings. Field names match the
// serialized settings asset so existing project files load unchanged.
type Snapshot struct {
	ShadersThatSupportBakeAO          []asset.ID   `json:"shadersThatSupportBakeAO" yaml:"shadersThatSupportBakeAO" toml:"shadersThatSupportBakeAO"`
	ShaderRemap                       []RemapEntry `json:"shaderRemap" yaml:"shaderRemap" toml:"shaderRemap"`
	LayersInteraction                 []LayerMask  `json:"layersInteraction" yaml:"layersInteraction" toml:"layersInteraction"`
	BakeMaterialsForStaticGameObjects bool         `json:"bakeMaterialsForStaticGameObjects" yaml:"bakeMaterialsForStaticGameObjects" toml:"bakeMaterialsForStaticGameObjects"`
}

// DefaultSnapshot is the state of a freshly created settings asset.
func DefaultSnapshot() Snapshot {
	layers := DefaultLayerMatrix()
	return Snapshot{
		ShadersThatSupportBakeAO: []asset.ID{},
		ShaderRemap:              []RemapEntry{},
		LayersInteraction:        layers.rows(),
	}
}

// Validate checks the invariants of a snapshot about to be written.
func (s *Snapshot) Validate() error {
	if len(s.LayersInteraction) != LayerCount {
		return fmt.Errorf("%w: layersInteraction has %d rows, want %d", ErrInvalidArgument, len(s.LayersInteraction), LayerCount)
	}
	return nil
}

// FrameCounter is a monotonic tick source, typically the host's rendered
// frame count.
type FrameCounter interface {
	RenderedFrameCount() int64
}

// FrameCounterFunc adapts a function to FrameCounter.
type FrameCounterFunc func() int64

// RenderedFrameCount implements FrameCounter.
func (f FrameCounterFunc) RenderedFrameCount() int64 {
	return f()
}

type Option func(*config)

type config struct {
	frames   FrameCounter
	undo     asset.UndoRecorder
	logger   Logger
	hooks    activity.Hooks
	activity activity.Config
	store    state.Store[Snapshot]
	ref      state.Ref
}

func applyOptions(opts []Option) config {
	cfg := config{
		activity: activity.Config{Enabled: true},
		ref:      state.Ref{Domain: Domain},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	return cfg
}

// WithFrameCounter gates the validation pass to once per tick of counter.
// Without it the pass runs whenever the settings were invalidated.
func WithFrameCounter(counter FrameCounter) Option {
	return func(cfg *config) {
		cfg.frames = counter
	}
}

// WithUndo sets the undo recorder. Databases implementing
// asset.UndoRecorder are used by default.
func WithUndo(undo asset.UndoRecorder) Option {
	return func(cfg *config) {
		cfg.undo = undo
	}
}

// WithLogger attaches a diagnostics logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithActivityHooks attaches change notification hooks. Nil entries are
// dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *config) {
		cfg.hooks = normalized
	}
}

// WithActivityConfig overrides emission defaults.
func WithActivityConfig(ac activity.Config) Option {
	return func(cfg *config) {
		cfg.activity = ac
	}
}

// WithStore sets where Flush persists the settings. An empty ref domain
// defaults to Domain.
func WithStore(store state.Store[Snapshot], ref state.Ref) Option {
	return func(cfg *config) {
		cfg.store = store
		if ref.Domain == "" {
			ref.Domain = Domain
		}
		cfg.ref = ref
	}
}

// WithRef overrides the ref used by WithStore or Open. An empty domain
// defaults to Domain.
func WithRef(ref state.Ref) Option {
	return func(cfg *config) {
		if ref.Domain == "" {
			ref.Domain = Domain
		}
		cfg.ref = ref
	}
}
