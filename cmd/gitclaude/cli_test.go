package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitclaude/gitclaude/pkg/claude"
	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/hooks"
	"github.com/gitclaude/gitclaude/pkg/runner"
)

type stubAssistant struct {
	prompts []string
}

func (s *stubAssistant) Run(_ context.Context, prompt string) (*claude.Response, error) {
	s.prompts = append(s.prompts, prompt)
	return &claude.Response{Content: "No issues found."}, nil
}

func (s *stubAssistant) Spawn(prompt string, out *os.File) error {
	s.prompts = append(s.prompts, prompt)
	if out != nil {
		_, err := out.WriteString("No issues found.")
		return err
	}
	return nil
}

type stubDeferrer struct {
	events []string
}

func (d *stubDeferrer) Defer(event string, _ time.Duration) error {
	d.events = append(d.events, event)
	return nil
}

type cli struct {
	t         *testing.T
	dir       string
	home      string
	assistant *stubAssistant
	deferrer  *stubDeferrer
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv(config.EnvVarName("templates.directory"), t.TempDir())

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	sig := &object.Signature{Name: "Ada", Email: "ada@example.com", When: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	_, err = wt.Commit("add main", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)

	return &cli{t: t, dir: dir, home: t.TempDir(), assistant: &stubAssistant{}, deferrer: &stubDeferrer{}}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{homeDir: c.home, assistant: c.assistant, deferrer: c.deferrer}
	code := executeWith(a, append([]string{"-C", c.dir}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := newCLI(t).run("version")
	assert.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "gitclaude version:")
	assert.Contains(t, out, "go version:")
	assert.Contains(t, out, "claude:")
}

func TestRun_DryRun(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("run", "post-commit", "--dry-run")
	require.Equal(t, runner.ExitSuccess, code)

	assert.Contains(t, out, "DRY RUN")
	assert.Contains(t, out, "Template:      review")
	assert.Contains(t, out, "debounce(30s) -> run")
	assert.Contains(t, out, "+package main")
	assert.Empty(t, c.assistant.prompts)
}

func TestRun_SyncSavesResponse(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("run", "post-commit", "--sync")
	require.Equal(t, runner.ExitSuccess, code, errOut)
	assert.Contains(t, out, "Response saved to")
	assert.Len(t, c.assistant.prompts, 1)

	code, out, _ = c.run("logs")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "post-commit")
	assert.Contains(t, out, "No issues found.")

	// a second run right away is debounced
	code, out, _ = c.run("run", "post-commit", "--sync")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "Not running post-commit:")
	assert.Contains(t, out, "debounce")
}

func TestRun_HookModeDefersDebouncedEvent(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("run", "post-commit", "--hook")
	require.Equal(t, runner.ExitSuccess, code, errOut)
	require.Len(t, c.assistant.prompts, 1)

	code, out, errOut := c.run("run", "post-commit", "--hook")
	require.Equal(t, runner.ExitSuccess, code, errOut)
	assert.Empty(t, out)
	assert.Equal(t, []string{"post-commit"}, c.deferrer.events)
	assert.Len(t, c.assistant.prompts, 1)

	// a manual run is not deferred
	code, out, _ = c.run("run", "post-commit")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "Not running post-commit:")
	assert.Len(t, c.deferrer.events, 1)
}

func TestRun_HookModeSkipsDisabledEvents(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("run", "pre-commit", "--hook")
	assert.Equal(t, runner.ExitSuccess, code)
	assert.Empty(t, out)
	assert.Empty(t, c.assistant.prompts)
}

func TestRun_HookModeIgnoresFileCheckout(t *testing.T) {
	c := newCLI(t)
	code, _, _ := c.run("run", "post-checkout", "--hook", "aaa", "bbb", "0")
	assert.Equal(t, runner.ExitSuccess, code)
	assert.Empty(t, c.assistant.prompts)
}

func TestRun_HookModeDegradesOnTemplateError(t *testing.T) {
	c := newCLI(t)
	cfgPath := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("events:\n  post-commit:\n    template: missing\n"), 0o644))

	code, _, errOut := c.run("--config", cfgPath, "run", "post-commit", "--hook")
	assert.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, errOut, "missing")

	// the failed render does not count as a run
	code, out, _ := c.run("--config", cfgPath, "status")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "Last run:       never")

	code, _, _ = c.run("--config", cfgPath, "run", "post-commit", "--dry-run")
	assert.Equal(t, runner.ExitFailure, code)
}

func TestRun_InvalidConfigAbortsHook(t *testing.T) {
	c := newCLI(t)
	cfgPath := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("rate_limit:\n  strategy: sometimes\n"), 0o644))

	code, _, errOut := c.run("--config", cfgPath, "run", "post-commit", "--hook")
	assert.Equal(t, runner.ExitConfig, code)
	assert.Contains(t, errOut, "rate_limit.strategy")
}

func TestRun_OutsideRepository(t *testing.T) {
	var stdout, stderr bytes.Buffer
	a := &app{homeDir: t.TempDir()}
	code := executeWith(a, []string{"-C", t.TempDir(), "run", "post-commit"}, &stdout, &stderr)
	assert.Equal(t, runner.ExitFailure, code)
	assert.Contains(t, stderr.String(), "not inside a git repository")
}

func TestTemplatesCommands(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("templates", "list")
	require.Equal(t, runner.ExitSuccess, code)
	for _, name := range []string{"review", "changelog", "validate", "summary", "context"} {
		assert.Contains(t, out, name)
	}

	code, out, _ = c.run("templates", "show", "review")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "{{.commit_hash}}")

	code, _, errOut := c.run("templates", "show", "nope")
	assert.Equal(t, runner.ExitFailure, code)
	assert.Contains(t, errOut, "nope")
}

func TestEnableStatusDisable(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("enable", "--events", "post-commit,pre-push")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "post-commit, pre-push")

	installed, err := hooks.NewManager(c.dir).Installed()
	require.NoError(t, err)
	assert.Equal(t, []string{"post-commit", "pre-push"}, installed)

	cfg, err := config.NewLoader().LoadFromPath(config.GetProjectConfigPath(c.dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"post-commit", "pre-push"}, cfg.EnabledEvents())

	code, out, _ = c.run("status")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "Hooks:          post-commit, pre-push")
	assert.Contains(t, out, "Rate limiting:  debounce(30s)")
	assert.Contains(t, out, "Last run:       never")
	assert.Contains(t, out, "Next event:     run")

	code, out, _ = c.run("disable")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "Configuration removed")

	installed, err = hooks.NewManager(c.dir).Installed()
	require.NoError(t, err)
	assert.Empty(t, installed)
	_, err = os.Stat(filepath.Join(c.dir, config.ProjectConfigDir))
	assert.True(t, os.IsNotExist(err))
}

func TestEnable_UnsupportedEvent(t *testing.T) {
	code, _, errOut := newCLI(t).run("enable", "--events", "post-rewrite")
	assert.Equal(t, runner.ExitConfig, code)
	assert.Contains(t, errOut, "unsupported hook event")
}

func TestStatus_Reset(t *testing.T) {
	c := newCLI(t)

	code, _, _ := c.run("run", "post-commit", "--sync")
	require.Equal(t, runner.ExitSuccess, code)

	code, out, _ := c.run("status")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "Runs this hour: 1")

	code, out, _ = c.run("status", "--reset")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "cleared")

	code, out, _ = c.run("status")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "Last run:       never")
}

func TestConfigCommands(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("config", "init")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, config.GetProjectConfigPath(c.dir))

	code, _, errOut := c.run("config", "init")
	assert.Equal(t, runner.ExitConfig, code)
	assert.Contains(t, errOut, "already exists")

	code, _, _ = c.run("config", "init", "--force")
	assert.Equal(t, runner.ExitSuccess, code)

	code, _, _ = c.run("config", "init", "--global")
	require.Equal(t, runner.ExitSuccess, code)
	_, err := os.Stat(filepath.Join(c.home, config.GlobalConfigDir, config.GlobalConfigFile))
	assert.NoError(t, err)

	code, out, _ = c.run("config", "show")
	require.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "rate_limit:")
	assert.Contains(t, out, "strategy: debounce")
}

func TestLogs_Empty(t *testing.T) {
	code, out, _ := newCLI(t).run("logs", "-n", "5", "--event", "pre-push")
	assert.Equal(t, runner.ExitSuccess, code)
	assert.Contains(t, out, "No responses found.")
}
