package menu_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	bakeao "github.com/goliatone/go-bakeao"
	"github.com/goliatone/go-bakeao/pkg/asset"
	"github.com/goliatone/go-bakeao/pkg/menu"
	"github.com/goliatone/go-bakeao/pkg/rules"
)

func TestMenuRegisterRunAndEnabled(t *testing.T) {
	m := menu.New()
	calls := 0
	enabled := false
	err := m.Register(menu.Item{
		Path:     "/Tools/Do/",
		Run:      func(context.Context) error { calls++; return nil },
		Validate: func() bool { return enabled },
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(menu.Item{Path: "Tools/Do", Run: func(context.Context) error { return nil }}); !errors.Is(err, menu.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := m.Register(menu.Item{Path: "Tools/Empty"}); !errors.Is(err, menu.ErrInvalidItem) {
		t.Fatalf("expected invalid item error, got %v", err)
	}

	if m.Enabled("Tools/Do") {
		t.Fatalf("expected item disabled")
	}
	if err := m.Run(context.Background(), "Tools/Do"); !errors.Is(err, menu.ErrDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
	enabled = true
	if err := m.Run(context.Background(), "Tools/Do"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
	if err := m.Run(context.Background(), "Tools/Missing"); !errors.Is(err, menu.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if m.Enabled("Tools/Missing") {
		t.Fatalf("missing items are never enabled")
	}
}

func newFixture(t *testing.T, opts ...menu.CommandOption) (*asset.MemoryDatabase, *bakeao.Settings, *menu.Menu) {
	t.Helper()
	db := asset.NewMemoryDatabase()
	settings := bakeao.New(db)
	t.Cleanup(settings.Close)
	m := menu.New()
	if err := menu.NewCommands(settings, db, db, opts...).Register(m); err != nil {
		t.Fatalf("register commands: %v", err)
	}
	return db, settings, m
}

func TestMarkSelectedShaders(t *testing.T) {
	db, settings, m := newFixture(t)
	lit := db.AddShader("Lit")
	unlit := db.AddShader("Unlit")
	mat := db.AddMaterial("Rock", lit, true)
	db.Select(mat, lit, asset.Nil, unlit)

	if !m.Enabled(menu.PathMarkSupported) || !m.Enabled(menu.PathMarkUnsupported) {
		t.Fatalf("expected commands enabled with shaders selected")
	}
	if err := m.Run(context.Background(), menu.PathMarkSupported); err != nil {
		t.Fatalf("mark supported: %v", err)
	}
	if got := settings.SupportedShaders(); !reflect.DeepEqual(got, []asset.ID{lit, unlit}) {
		t.Fatalf("expected both shaders supported, got %v", got)
	}
	if settings.IsShaderSupported(mat) {
		t.Fatalf("materials must not be marked")
	}

	db.Select(unlit)
	if err := m.Run(context.Background(), menu.PathMarkUnsupported); err != nil {
		t.Fatalf("mark unsupported: %v", err)
	}
	if got := settings.SupportedShaders(); !reflect.DeepEqual(got, []asset.ID{lit}) {
		t.Fatalf("expected only lit supported, got %v", got)
	}
}

func TestCommandsDisabledWithoutShaders(t *testing.T) {
	db, settings, m := newFixture(t)
	shader := db.AddShader("Lit")
	mat := db.AddMaterial("Rock", shader, true)

	db.Select(mat)
	if m.Enabled(menu.PathMarkSupported) {
		t.Fatalf("expected command disabled for a material only selection")
	}

	db.Select(shader)
	db.Delete(shader)
	if m.Enabled(menu.PathMarkUnsupported) {
		t.Fatalf("expected command disabled when the selected shader was deleted")
	}
	if err := m.Run(context.Background(), menu.PathMarkSupported); !errors.Is(err, menu.ErrDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
	if len(settings.SupportedShaders()) != 0 {
		t.Fatalf("expected no supported shaders")
	}
}

func TestShaderRuleNarrowsSelection(t *testing.T) {
	rule, err := rules.NewPredicate(rules.EngineExpr, `name startsWith "Lit"`, nil)
	if err != nil {
		t.Fatalf("compile rule: %v", err)
	}
	db, settings, m := newFixture(t, menu.WithShaderRule(rule))
	lit := db.AddShader("LitAO")
	unlit := db.AddShader("Unlit")

	db.Select(unlit)
	if m.Enabled(menu.PathMarkSupported) {
		t.Fatalf("expected rule to filter out Unlit")
	}

	db.Select(unlit, lit)
	if err := m.Run(context.Background(), menu.PathMarkSupported); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := settings.SupportedShaders(); !reflect.DeepEqual(got, []asset.ID{lit}) {
		t.Fatalf("expected only LitAO supported, got %v", got)
	}
}

func TestMarkSelectedAcceptsNilContext(t *testing.T) {
	db, settings, m := newFixture(t)
	lit := db.AddShader("Lit")
	db.Select(lit)

	//nolint:staticcheck // nil context falls back to Background
	if err := m.Run(nil, menu.PathMarkSupported); err != nil {
		t.Fatalf("mark supported: %v", err)
	}
	if !settings.IsShaderSupported(lit) {
		t.Fatalf("expected lit supported")
	}

	commands := menu.NewCommands(settings, db, db)
	//nolint:staticcheck // nil context falls back to Background
	if err := commands.MarkSelectedUnsupported(nil); err != nil {
		t.Fatalf("mark unsupported: %v", err)
	}
	if settings.IsShaderSupported(lit) {
		t.Fatalf("expected lit unsupported")
	}
}
