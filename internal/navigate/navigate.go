// Package navigate turns route paths into navigation plans. A root visit is
// resolved to a concrete workspace; every landing on a known workspace
// produces a Remember effect that Apply writes to the selection store.
package navigate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wsnav/internal/resolve"
)

var ErrUnknownWorkspace = errors.New("unknown workspace")

// Catalog lists the workspaces that currently exist.
type Catalog interface {
	WorkspaceNames(ctx context.Context) ([]string, error)
}

// SelectionStore holds the remembered workspace between navigations.
type SelectionStore interface {
	RememberedWorkspace() (string, bool, error)
	RememberWorkspace(name string) error
}

// Remember is the persistence effect of a navigation.
type Remember struct {
	Workspace string `json:"workspace" yaml:"workspace"`
}

type Plan struct {
	Path     string            `json:"path" yaml:"path"`
	Route    Route             `json:"route" yaml:"route"`
	Target   Route             `json:"target" yaml:"target"`
	URL      string            `json:"url" yaml:"url"`
	Redirect bool              `json:"redirect" yaml:"redirect"`
	NotFound bool              `json:"not_found,omitempty" yaml:"not_found,omitempty"`
	Decision *resolve.Decision `json:"decision,omitempty" yaml:"decision,omitempty"`
	Remember *Remember         `json:"remember,omitempty" yaml:"remember,omitempty"`
}

type Navigator struct {
	catalog   Catalog
	selection SelectionStore
	hidden    func(string) bool
	logger    *zap.Logger
}

type Option func(*Navigator)

// WithHidden drops matching workspaces from automatic resolution.
func WithHidden(match func(name string) bool) Option {
	return func(n *Navigator) {
		n.hidden = match
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func New(catalog Catalog, selection SelectionStore, opts ...Option) *Navigator {
	n := &Navigator{
		catalog:   catalog,
		selection: selection,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Input snapshots the catalog and the remembered selection.
func (n *Navigator) Input(ctx context.Context) (resolve.Input, error) {
	names, err := n.catalog.WorkspaceNames(ctx)
	if err != nil {
		return resolve.Input{}, fmt.Errorf("list workspaces: %w", err)
	}
	if n.hidden != nil {
		visible := make([]string, 0, len(names))
		for _, name := range names {
			if n.hidden(name) {
				continue
			}
			visible = append(visible, name)
		}
		names = visible
	}
	remembered, ok, err := n.selection.RememberedWorkspace()
	if err != nil {
		return resolve.Input{}, fmt.Errorf("read remembered workspace: %w", err)
	}
	return resolve.Input{Workspaces: names, Remembered: remembered, HasRemembered: ok}, nil
}

// Resolve decides where a root visit would land without recording anything.
func (n *Navigator) Resolve(ctx context.Context) (resolve.Decision, error) {
	in, err := n.Input(ctx)
	if err != nil {
		return resolve.Decision{}, err
	}
	decision := resolve.Decide(in)
	n.logger.Debug("workspace resolved",
		zap.String("workspace", decision.Workspace),
		zap.String("rule", string(decision.Rule)),
		zap.Bool("exists", decision.Exists),
		zap.Int("known", len(in.Workspaces)),
		zap.String("remembered", in.Remembered),
	)
	return decision, nil
}

// Plan computes the outcome of visiting path. It performs no writes.
func (n *Navigator) Plan(ctx context.Context, path string) (Plan, error) {
	route, err := ParseRoute(path)
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{Path: path, Route: route}

	if route.Kind == KindRoot {
		decision, err := n.Resolve(ctx)
		if err != nil {
			return Plan{}, err
		}
		plan.Decision = &decision
		plan.Target = WorkspaceRoute(decision.Workspace)
		plan.Redirect = true
		if decision.Exists {
			plan.Remember = &Remember{Workspace: decision.Workspace}
		}
		plan.URL = plan.Target.String()
		return plan, nil
	}

	plan.Target = route
	plan.URL = route.String()
	exists, err := n.exists(ctx, route.Workspace)
	if err != nil {
		return Plan{}, err
	}
	if !exists {
		plan.NotFound = true
		n.logger.Debug("workspace not found", zap.String("workspace", route.Workspace), zap.String("path", path))
		return plan, nil
	}
	plan.Remember = &Remember{Workspace: route.Workspace}
	return plan, nil
}

// Apply performs the plan's persistence effect, if any.
func (n *Navigator) Apply(plan Plan) error {
	if plan.Remember == nil {
		return nil
	}
	if err := n.selection.RememberWorkspace(plan.Remember.Workspace); err != nil {
		return fmt.Errorf("remember workspace: %w", err)
	}
	n.logger.Debug("workspace remembered", zap.String("workspace", plan.Remember.Workspace))
	return nil
}

// Visit plans a navigation and applies its effect.
func (n *Navigator) Visit(ctx context.Context, path string) (Plan, error) {
	plan, err := n.Plan(ctx, path)
	if err != nil {
		return Plan{}, err
	}
	if err := n.Apply(plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Switch moves from the current page to the same page in another
// workspace. The target must exist.
func (n *Navigator) Switch(ctx context.Context, workspace string, from Route) (Plan, error) {
	exists, err := n.exists(ctx, workspace)
	if err != nil {
		return Plan{}, err
	}
	if !exists {
		return Plan{}, fmt.Errorf("%w: %s", ErrUnknownWorkspace, workspace)
	}
	target := from.In(workspace)
	plan := Plan{
		Path:     from.String(),
		Route:    from,
		Target:   target,
		URL:      target.String(),
		Redirect: true,
		Remember: &Remember{Workspace: workspace},
	}
	if err := n.Apply(plan); err != nil {
		return Plan{}, err
	}
	n.logger.Debug("workspace switched", zap.String("from", from.String()), zap.String("to", plan.URL))
	return plan, nil
}

func (n *Navigator) exists(ctx context.Context, workspace string) (bool, error) {
	names, err := n.catalog.WorkspaceNames(ctx)
	if err != nil {
		return false, fmt.Errorf("list workspaces: %w", err)
	}
	for _, name := range names {
		if name == workspace {
			return true, nil
		}
	}
	return false, nil
}
