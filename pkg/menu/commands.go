package menu

import (
	"context"
	"fmt"

	"github.com/goliatone/go-bakeao/pkg/asset"
	"github.com/goliatone/go-bakeao/pkg/rules"
)

// Paths of the Bake AO selection commands.
const (
	PathMarkSupported   = "Edit/Procedural Pixels/Bake AO/Mark selected shaders as supported by bake AO"
	PathMarkUnsupported = "Edit/Procedural Pixels/Bake AO/Mark selected shaders as unsupported by bake AO"
)

// ShaderMarker is the part of the settings store the commands mutate.
type ShaderMarker interface {
	MarkShaderAsSupported(shader asset.ID)
	MarkShaderAsUnsupported(shader asset.ID)
}

// Lookup resolves asset handles.
type Lookup interface {
	Lookup(id asset.ID) (asset.Object, bool)
}

// CommandOption configures Commands.
type CommandOption func(*Commands)

// WithShaderRule narrows the selection to shaders whose descriptor matches
// rule.
func WithShaderRule(rule *rules.Predicate) CommandOption {
	return func(c *Commands) {
		c.rule = rule
	}
}

// Commands applies shader support changes to the selected shaders.
type Commands struct {
	settings  ShaderMarker
	db        Lookup
	selection asset.Selection
	rule      *rules.Predicate
}

// NewCommands binds the commands to the settings store, the asset database
// and the editor selection.
func NewCommands(settings ShaderMarker, db Lookup, selection asset.Selection, opts ...CommandOption) *Commands {
	c := &Commands{settings: settings, db: db, selection: selection}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SelectedShaders returns the live shaders in the selection, in selection
// order, filtered by the shader rule when one is set.
func (c *Commands) SelectedShaders() ([]asset.ID, error) {
	if c.selection == nil {
		return nil, nil
	}
	var shaders []asset.ID
	for _, id := range c.selection.Selected() {
		if id.IsNil() {
			continue
		}
		obj, ok := c.db.Lookup(id)
		if !ok || obj.Kind != asset.KindShader {
			continue
		}
		if c.rule != nil {
			matched, err := c.rule.Match(obj.Descriptor())
			if err != nil {
				return nil, fmt.Errorf("menu: shader rule %q: %w", c.rule.Expr(), err)
			}
			if !matched {
				continue
			}
		}
		shaders = append(shaders, obj.ID)
	}
	return shaders, nil
}

// HasSelectedShaders validates both commands: they are enabled when the
// selection holds at least one shader.
func (c *Commands) HasSelectedShaders() bool {
	shaders, err := c.SelectedShaders()
	return err == nil && len(shaders) > 0
}

// MarkSelectedSupported marks every selected shader as supported.
func (c *Commands) MarkSelectedSupported(ctx context.Context) error {
	return c.apply(ctx, c.settings.MarkShaderAsSupported)
}

// MarkSelectedUnsupported marks every selected shader as unsupported.
func (c *Commands) MarkSelectedUnsupported(ctx context.Context) error {
	return c.apply(ctx, c.settings.MarkShaderAsUnsupported)
}

func (c *Commands) apply(ctx context.Context, mark func(asset.ID)) error {
	shaders, err := c.SelectedShaders()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, shader := range shaders {
		if err := ctx.Err(); err != nil {
			return err
		}
		mark(shader)
	}
	return nil
}

// Register adds both commands to m.
func (c *Commands) Register(m *Menu) error {
	items := []Item{
		{Path: PathMarkSupported, Run: c.MarkSelectedSupported, Validate: c.HasSelectedShaders},
		{Path: PathMarkUnsupported, Run: c.MarkSelectedUnsupported, Validate: c.HasSelectedShaders, Priority: 1},
	}
	for _, item := range items {
		if err := m.Register(item); err != nil {
			return err
		}
	}
	return nil
}
