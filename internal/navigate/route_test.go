package navigate

import (
	"errors"
	"testing"
)

func TestParseRoute(t *testing.T) {
	cases := []struct {
		path string
		want Route
	}{
		{"/", RootRoute()},
		{"", RootRoute()},
		{"/production", WorkspaceRoute("production")},
		{"/production/", WorkspaceRoute("production")},
		{"/staging/test-project/app/test-project/builds", BuildsRoute("staging", "test-project", "test-project")},
	}
	for _, tc := range cases {
		got, err := ParseRoute(tc.path)
		if err != nil {
			t.Fatalf("ParseRoute(%q): %v", tc.path, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRoute(%q) = %+v, want %+v", tc.path, got, tc.want)
		}
	}
}

func TestParseRouteRejectsMalformed(t *testing.T) {
	for _, path := range []string{
		"production",
		"/a/b",
		"/a/b/app/c",
		"/a/b/apps/c/builds",
		"/a//b",
	} {
		if _, err := ParseRoute(path); !errors.Is(err, ErrBadRoute) {
			t.Fatalf("ParseRoute(%q) expected ErrBadRoute, got %v", path, err)
		}
	}
}

func TestRouteStringRoundTrip(t *testing.T) {
	for _, path := range []string{"/", "/alpha", "/alpha/p/app/a/builds"} {
		route, err := ParseRoute(path)
		if err != nil {
			t.Fatalf("parse %q: %v", path, err)
		}
		if route.String() != path {
			t.Fatalf("expected %q, got %q", path, route.String())
		}
	}
}

func TestRouteIn(t *testing.T) {
	builds := BuildsRoute("staging", "p", "a")
	if got := builds.In("production").String(); got != "/production/p/app/a/builds" {
		t.Fatalf("unexpected builds route %s", got)
	}
	if got := RootRoute().In("alpha").String(); got != "/alpha" {
		t.Fatalf("unexpected root route %s", got)
	}
	if got := WorkspaceRoute("a").In("b").String(); got != "/b" {
		t.Fatalf("unexpected workspace route %s", got)
	}
}
