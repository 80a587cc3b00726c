package navigate

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadRoute = errors.New("bad route")

type Kind string

const (
	KindRoot      Kind = "root"
	KindWorkspace Kind = "workspace"
	KindBuilds    Kind = "builds"
)

// Route is a parsed navigation path: "/", "/<ws>" or
// "/<ws>/<project>/app/<application>/builds".
type Route struct {
	Kind        Kind   `json:"kind" yaml:"kind"`
	Workspace   string `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Project     string `json:"project,omitempty" yaml:"project,omitempty"`
	Application string `json:"application,omitempty" yaml:"application,omitempty"`
}

func RootRoute() Route {
	return Route{Kind: KindRoot}
}

func WorkspaceRoute(workspace string) Route {
	return Route{Kind: KindWorkspace, Workspace: workspace}
}

func BuildsRoute(workspace, project, application string) Route {
	return Route{Kind: KindBuilds, Workspace: workspace, Project: project, Application: application}
}

func ParseRoute(path string) (Route, error) {
	raw := strings.TrimSpace(path)
	if raw == "" {
		return RootRoute(), nil
	}
	if !strings.HasPrefix(raw, "/") {
		return Route{}, fmt.Errorf("%w: %q must start with /", ErrBadRoute, path)
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return RootRoute(), nil
	}
	parts := strings.Split(trimmed, "/")
	for _, part := range parts {
		if part == "" {
			return Route{}, fmt.Errorf("%w: %q has an empty segment", ErrBadRoute, path)
		}
	}

	switch {
	case len(parts) == 1:
		return WorkspaceRoute(parts[0]), nil
	case len(parts) == 5 && parts[2] == "app" && parts[4] == "builds":
		return BuildsRoute(parts[0], parts[1], parts[3]), nil
	default:
		return Route{}, fmt.Errorf("%w: %q", ErrBadRoute, path)
	}
}

func (r Route) String() string {
	switch r.Kind {
	case KindWorkspace:
		return "/" + r.Workspace
	case KindBuilds:
		return fmt.Sprintf("/%s/%s/app/%s/builds", r.Workspace, r.Project, r.Application)
	default:
		return "/"
	}
}

// In returns the same page scoped to another workspace. The root page maps
// to the workspace landing page.
func (r Route) In(workspace string) Route {
	switch r.Kind {
	case KindBuilds:
		return BuildsRoute(workspace, r.Project, r.Application)
	default:
		return WorkspaceRoute(workspace)
	}
}
