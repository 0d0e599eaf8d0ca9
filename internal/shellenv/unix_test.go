package shellenv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setHome points HOME at a fresh temp dir and returns it.
func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NVM_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("# test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveZshSourcesZshrc(t *testing.T) {
	home := setHome(t)
	t.Setenv("SHELL", "/bin/zsh")
	writeFile(t, filepath.Join(home, ".zshrc"))

	spec, err := UnixStrategy{}.Resolve("preview-server serve --port 3000", "/srv/site")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if spec.Path != "/bin/zsh" {
		t.Errorf("Path = %q, want /bin/zsh", spec.Path)
	}
	if len(spec.Args) != 2 || spec.Args[0] != "-c" {
		t.Fatalf("Args = %v, want [-c <script>]", spec.Args)
	}
	script := spec.Args[1]
	if !strings.Contains(script, ".zshrc") {
		t.Errorf("script does not source .zshrc: %q", script)
	}
	if !strings.Contains(script, ">/dev/null 2>&1") {
		t.Errorf("profile sourcing not silenced: %q", script)
	}
	if !strings.HasSuffix(script, "preview-server serve --port 3000") {
		t.Errorf("script does not end with command: %q", script)
	}
	if spec.Dir != "/srv/site" {
		t.Errorf("Dir = %q, want /srv/site", spec.Dir)
	}
}

func TestResolveZshWithoutZshrcSkipsSourcing(t *testing.T) {
	setHome(t)
	t.Setenv("SHELL", "/usr/bin/zsh")

	spec, err := UnixStrategy{}.Resolve("preview-server serve", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if strings.Contains(spec.Args[1], ".zshrc") {
		t.Errorf("sourced a zshrc that does not exist: %q", spec.Args[1])
	}
}

func TestResolveBashPrefersNVMDir(t *testing.T) {
	home := setHome(t)
	t.Setenv("SHELL", "/bin/bash")

	nvmDir := filepath.Join(home, "custom-nvm")
	writeFile(t, filepath.Join(nvmDir, "nvm.sh"))
	t.Setenv("NVM_DIR", nvmDir)

	// A ~/.profile also exists but nvm.sh wins
	writeFile(t, filepath.Join(home, ".profile"))

	spec, err := UnixStrategy{}.Resolve("preview-server serve", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	script := spec.Args[1]
	if !strings.Contains(script, "nvm.sh") {
		t.Errorf("script does not source nvm.sh: %q", script)
	}
	if strings.Contains(script, ".profile") {
		t.Errorf("script sources .profile despite nvm.sh existing: %q", script)
	}
}

func TestResolveBashFallsBackToProfile(t *testing.T) {
	home := setHome(t)
	t.Setenv("SHELL", "/bin/bash")
	writeFile(t, filepath.Join(home, ".profile"))

	spec, err := UnixStrategy{}.Resolve("preview-server serve", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(spec.Args[1], ".profile") {
		t.Errorf("script does not source .profile: %q", spec.Args[1])
	}
}

func TestResolveDefaultsShell(t *testing.T) {
	setHome(t)
	t.Setenv("SHELL", "")

	spec, err := UnixStrategy{}.Resolve("preview-server serve", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if spec.Path != "/bin/sh" {
		t.Errorf("Path = %q, want /bin/sh", spec.Path)
	}
}

func TestResolvePrependsLocalBin(t *testing.T) {
	home := setHome(t)
	t.Setenv("SHELL", "/bin/bash")

	localBin := filepath.Join(home, ".local", "bin")
	if err := os.MkdirAll(localBin, 0o755); err != nil {
		t.Fatal(err)
	}

	spec, err := UnixStrategy{}.Resolve("preview-server serve", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(spec.Args[1], "export PATH="+localBin) {
		t.Errorf("script does not prepend %s: %q", localBin, spec.Args[1])
	}
}

func TestResolveSetsHomeAndConfigHome(t *testing.T) {
	home := setHome(t)
	t.Setenv("SHELL", "/bin/bash")

	spec, err := UnixStrategy{}.Resolve("preview-server serve", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var gotHome, gotConfig bool
	for _, kv := range spec.Env {
		if kv == "HOME="+home {
			gotHome = true
		}
		if kv == "XDG_CONFIG_HOME="+filepath.Join(home, ".config") {
			gotConfig = true
		}
	}
	if !gotHome {
		t.Error("child env missing explicit HOME")
	}
	if !gotConfig {
		t.Error("child env missing XDG_CONFIG_HOME fallback")
	}
}

func TestResolveQuotesPathsWithSpaces(t *testing.T) {
	home := setHome(t)
	t.Setenv("SHELL", "/bin/zsh")

	// HOME path containing a space must be quoted in the script
	spaced := filepath.Join(home, "My Home")
	if err := os.MkdirAll(spaced, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", spaced)
	writeFile(t, filepath.Join(spaced, ".zshrc"))

	spec, err := UnixStrategy{}.Resolve("preview-server serve", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	script := spec.Args[1]
	if strings.Contains(script, "My Home/.zshrc") && !strings.Contains(script, `"`) && !strings.Contains(script, `'`) {
		t.Errorf("spaced path not quoted: %q", script)
	}
}

func TestDeterministicResolution(t *testing.T) {
	home := setHome(t)
	t.Setenv("SHELL", "/bin/bash")
	writeFile(t, filepath.Join(home, ".profile"))

	first, err := UnixStrategy{}.Resolve("preview-server serve", "/srv/site")
	if err != nil {
		t.Fatal(err)
	}
	second, err := UnixStrategy{}.Resolve("preview-server serve", "/srv/site")
	if err != nil {
		t.Fatal(err)
	}
	if first.Path != second.Path || first.Args[1] != second.Args[1] {
		t.Error("identical inputs produced different spawn specs")
	}
}
