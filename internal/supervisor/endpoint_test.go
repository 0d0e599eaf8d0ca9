package supervisor

import (
	"strings"
	"testing"
)

func TestDirTokenIsDeterministic(t *testing.T) {
	a := DirToken("/home/user/project")
	b := DirToken("/home/user/project")
	if a != b {
		t.Errorf("tokens differ for identical input: %q vs %q", a, b)
	}
	if a == DirToken("/home/user/other") {
		t.Error("distinct directories produced the same token")
	}
}

func TestDirTokenIsURLSafe(t *testing.T) {
	dirs := []string{
		"/home/user/project",
		"/home/user/my project (copy)",
		"/home/üser/проект",
		`C:\Users\dev\site`,
		"",
	}
	for _, dir := range dirs {
		token := DirToken(dir)
		if token == "" {
			t.Errorf("DirToken(%q) is empty", dir)
			continue
		}
		if strings.ContainsAny(token, "/+= ?#%") {
			t.Errorf("DirToken(%q) = %q contains URL-unsafe characters", dir, token)
		}
	}
}

func TestDirTokenDoesNotLeakPath(t *testing.T) {
	dir := "/home/user/secret-project"
	token := DirToken(dir)
	for _, part := range []string{"home", "user", "secret"} {
		if strings.Contains(strings.ToLower(token), part) {
			t.Errorf("token %q appears to contain path segment %q", token, part)
		}
	}
}

func TestEndpointFor(t *testing.T) {
	got := EndpointFor("127.0.0.1", 4100, "/home/user/project")
	wantPrefix := "http://127.0.0.1:4100/"
	if !strings.HasPrefix(got, wantPrefix) {
		t.Errorf("endpoint = %q, want prefix %q", got, wantPrefix)
	}
	if got == wantPrefix {
		t.Error("endpoint has no directory token segment")
	}
	if got != EndpointFor("127.0.0.1", 4100, "/home/user/project") {
		t.Error("endpoint changed between calls with identical settings")
	}
}

func TestOrigin(t *testing.T) {
	if got, want := Origin("localhost", 3000), "http://localhost:3000"; got != want {
		t.Errorf("Origin = %q, want %q", got, want)
	}
}
