package functional

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// aTapWorkingDirectory is a no-op because the Before hook already sets
// up the environment. This step exists so feature files read naturally.
func aTapWorkingDirectory(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

// theUpstreamBecomesUnreachable points subsequent runs at a closed
// port, simulating a GitHub outage.
func theUpstreamBecomesUnreachable(ctx context.Context) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return ctx, err
	}
	addr := l.Addr().String()
	l.Close()

	state.apiBase = "http://" + addr
	return ctx, nil
}

// theManifestIsSeededWithABadDigestFor writes a manifest whose stored
// digest cannot match the asset the mock serves.
func theManifestIsSeededWithABadDigestFor(ctx context.Context, tag string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	manifest := map[string]any{
		"updated_at": "2025-06-20T00:00:00Z",
		"versions": map[string]any{
			tag: map[string]any{
				"canton_version": strings.TrimPrefix(tag, "v"),
				"download_url":   state.upstream.DownloadURL(tag),
				"sha256":         strings.Repeat("a", 64),
				"is_prerelease":  false,
				"published_at":   "2025-06-15T08:00:00Z",
			},
		},
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return ctx, err
	}
	return ctx, os.WriteFile(filepath.Join(state.workDir, "versions.json"), data, 0o644)
}

// iRun executes a command string, replacing "tapgen" with the test
// binary path. The command runs inside the scenario's working
// directory with the mock upstream wired in through the environment.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "tapgen" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = state.workDir

	// Strip host values that would leak into the scenario, then pin
	// the config, API base, and job outputs file.
	var env []string
	for _, kv := range os.Environ() {
		switch {
		case strings.HasPrefix(kv, "TAPGEN_"),
			strings.HasPrefix(kv, "GITHUB_TOKEN="),
			strings.HasPrefix(kv, "GITHUB_OUTPUT="):
			continue
		}
		env = append(env, kv)
	}
	env = append(env,
		"TAPGEN_CONFIG="+filepath.Join(state.workDir, "tapgen.toml"),
		"TAPGEN_API_BASE="+state.apiBase,
		"GITHUB_OUTPUT="+state.outputs,
	)
	cmd.Env = env

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
	} else {
		state.exitCode = 0
	}

	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theFileExists(ctx context.Context, path string) error {
	state := getState(ctx)
	if _, err := os.Stat(filepath.Join(state.workDir, path)); err != nil {
		return fmt.Errorf("expected %s to exist: %v", path, err)
	}
	return nil
}

func theFileDoesNotExist(ctx context.Context, path string) error {
	state := getState(ctx)
	if _, err := os.Stat(filepath.Join(state.workDir, path)); err == nil {
		return fmt.Errorf("expected %s to not exist", path)
	}
	return nil
}

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// theManifestContainsAHashedEntryFor checks versions.json holds the
// tag with a plausible sha256.
func theManifestContainsAHashedEntryFor(ctx context.Context, tag string) error {
	state := getState(ctx)

	data, err := os.ReadFile(filepath.Join(state.workDir, "versions.json"))
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	var manifest struct {
		Versions map[string]struct {
			SHA256 string `json:"sha256"`
		} `json:"versions"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}

	entry, ok := manifest.Versions[tag]
	if !ok {
		return fmt.Errorf("manifest has no entry for %s:\n%s", tag, data)
	}
	if !hexDigest.MatchString(entry.SHA256) {
		return fmt.Errorf("entry %s has digest %q, want 64-char lowercase hex", tag, entry.SHA256)
	}
	return nil
}

func theJobOutputsContain(ctx context.Context, text string) error {
	state := getState(ctx)

	data, err := os.ReadFile(state.outputs)
	if err != nil {
		return fmt.Errorf("reading job outputs: %w", err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("expected job outputs to contain %q, got:\n%s", text, data)
	}
	return nil
}
