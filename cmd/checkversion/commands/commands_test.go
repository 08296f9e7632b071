package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ilove8790/nextplay/internal/config"
	"github.com/ilove8790/nextplay/internal/resolver"
	"github.com/ilove8790/nextplay/internal/vcs"
)

// fakeGit answers the two git queries with canned output. Empty fields mean
// "not a repository".
type fakeGit struct {
	tag    string
	branch string
}

func (f fakeGit) Run(_ context.Context, _ string, args ...string) (*vcs.RunResult, error) {
	notRepo := &vcs.RunResult{ExitCode: 128, Stderr: "fatal: not a git repository"}
	switch strings.Join(args, " ") {
	case "tag --points-at HEAD":
		if f.branch == "" && f.tag == "" {
			return notRepo, nil
		}
		return &vcs.RunResult{Stdout: f.tag + "\n"}, nil
	case "rev-parse --abbrev-ref HEAD":
		if f.branch == "" {
			return notRepo, nil
		}
		return &vcs.RunResult{Stdout: f.branch + "\n"}, nil
	}
	return nil, errors.New("unexpected git invocation")
}

// testClock is pinned to 2026-10-14 local time.
var testClock = resolver.ClockFunc(func() time.Time {
	return time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local)
})

// isolateEnv clears every env var the commands read.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvConfig, config.EnvDir, config.EnvProject, config.EnvGit,
		config.EnvGitTimeout, config.EnvHistoryDB, config.EnvMetricsFile,
		config.EnvLogLevel, config.EnvLogFormat,
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv(config.EnvLogLevel, "error")
}

// newProject creates an empty project directory named name.
func newProject(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// run executes the command tree with args and returns stdout.
func run(t *testing.T, git fakeGit, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(deps{runner: git, clock: testClock})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func Test_Root_WritesVersionFile(t *testing.T) {
	cases := []struct {
		name string
		git  fakeGit
		want string
	}{
		{"tag at head", fakeGit{tag: "2.3.250910", branch: "main"}, "2.3.250910\n"},
		{"odd tag verbatim", fakeGit{tag: "v9-beta", branch: "1.2"}, "v9-beta\n"},
		{"numeric branch", fakeGit{branch: "1.4.x"}, "1.4.261014\n"},
		{"feature branch", fakeGit{branch: "1.4-feature"}, "1.4-feature\n"},
		{"main", fakeGit{branch: "main"}, "main\n"},
		{"no repository", fakeGit{}, "unknown\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isolateEnv(t)
			dir := newProject(t, "matool")

			out, err := run(t, tc.git, "--dir", dir)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if out != "" {
				t.Errorf("default run should print nothing on stdout, got %q", out)
			}
			if got := readFile(t, filepath.Join(dir, "matool.version")); got != tc.want {
				t.Errorf("contents = %q, want %q", got, tc.want)
			}
		})
	}
}

func Test_Root_Idempotent(t *testing.T) {
	isolateEnv(t)
	dir := newProject(t, "nextplay")
	git := fakeGit{branch: "3.0"}

	if _, err := run(t, git, "--dir", dir); err != nil {
		t.Fatal(err)
	}
	first := readFile(t, filepath.Join(dir, "nextplay.version"))
	if _, err := run(t, git, "--dir", dir); err != nil {
		t.Fatal(err)
	}
	if second := readFile(t, filepath.Join(dir, "nextplay.version")); first != second {
		t.Errorf("contents differ: %q vs %q", first, second)
	}
}

func Test_Root_DirFromEnvAndProjectOverride(t *testing.T) {
	isolateEnv(t)
	dir := newProject(t, "ignored-name")
	t.Setenv(config.EnvDir, dir)

	if _, err := run(t, fakeGit{branch: "main"}, "--project", "custom"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "custom.version")); got != "main\n" {
		t.Errorf("contents = %q", got)
	}
}

func Test_Root_WriteFailureIsFatal(t *testing.T) {
	isolateEnv(t)
	dir := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := run(t, fakeGit{branch: "main"}, "--dir", dir)
	if err == nil {
		t.Fatal("want error when the version file cannot be written")
	}
	if !strings.Contains(err.Error(), "does-not-exist.version") {
		t.Errorf("error should name the file, got %v", err)
	}
}

func Test_Root_RejectsArgs(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, fakeGit{}, "extra"); err == nil {
		t.Error("want error for unexpected positional argument")
	}
}

func Test_Show_DoesNotWrite(t *testing.T) {
	isolateEnv(t)
	dir := newProject(t, "matool")

	out, err := run(t, fakeGit{branch: "2.5"}, "show", "--dir", dir)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out != "2.5.261014\n" {
		t.Errorf("stdout = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "matool.version")); !os.IsNotExist(err) {
		t.Error("show must not create the version file")
	}

	out, err = run(t, fakeGit{branch: "2.5"}, "show", "-v", "--dir", dir)
	if err != nil {
		t.Fatalf("show -v: %v", err)
	}
	if !strings.Contains(out, "source:  branch-date") {
		t.Errorf("verbose output missing source: %q", out)
	}
}

func Test_Check(t *testing.T) {
	isolateEnv(t)
	dir := newProject(t, "matool")
	git := fakeGit{tag: "1.1.261001"}

	if _, err := run(t, git, "check", "--dir", dir); err == nil {
		t.Fatal("want error when the version file is missing")
	}

	if _, err := run(t, git, "--dir", dir); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, git, "check", "--dir", dir); err != nil {
		t.Errorf("want up-to-date check to pass, got %v", err)
	}

	_, err := run(t, fakeGit{tag: "1.2.261014"}, "check", "--dir", dir)
	if !errors.Is(err, ErrStale) {
		t.Errorf("want ErrStale, got %v", err)
	}
}

func Test_History(t *testing.T) {
	isolateEnv(t)
	dir := newProject(t, "matool")
	db := filepath.Join(t.TempDir(), "history.db")

	if _, err := run(t, fakeGit{branch: "1.0"}, "--dir", dir, "--history-db", db); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, fakeGit{tag: "1.0.261014"}, "--dir", dir, "--history-db", db); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, fakeGit{}, "history", "--dir", dir, "--history-db", db)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 history lines, got %q", out)
	}
	if !strings.HasSuffix(lines[0], "1.0.261014\tbranch-date") || !strings.HasSuffix(lines[1], "1.0.261014\ttag") {
		t.Errorf("unexpected history output: %q", out)
	}
}

func Test_History_RequiresLedger(t *testing.T) {
	isolateEnv(t)
	dir := newProject(t, "matool")
	if _, err := run(t, fakeGit{}, "history", "--dir", dir); !errors.Is(err, errNoHistory) {
		t.Errorf("want errNoHistory, got %v", err)
	}
}

func Test_History_BadLedgerDoesNotFailWrite(t *testing.T) {
	isolateEnv(t)
	dir := newProject(t, "matool")
	db := filepath.Join(t.TempDir(), "missing", "dir", "history.db")

	if _, err := run(t, fakeGit{branch: "main"}, "--dir", dir, "--history-db", db); err != nil {
		t.Fatalf("ledger failure must not fail the run: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "matool.version")); got != "main\n" {
		t.Errorf("contents = %q", got)
	}
}

func Test_Root_MetricsTextfile(t *testing.T) {
	isolateEnv(t)
	dir := newProject(t, "matool")
	prom := filepath.Join(t.TempDir(), "checkversion.prom")

	if _, err := run(t, fakeGit{}, "--dir", dir, "--metrics-file", prom); err != nil {
		t.Fatal(err)
	}
	got := readFile(t, prom)
	for _, want := range []string{
		`checkversion_resolutions_total{source="fallback"} 1`,
		`checkversion_vcs_query_failures_total{query="branch"} 1`,
		`checkversion_info{project="matool",version="unknown"} 1`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("textfile missing %q:\n%s", want, got)
		}
	}
}

func Test_Version(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, fakeGit{}, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "checkversion ") {
		t.Errorf("stdout = %q", out)
	}
}
