package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitclaude/gitclaude/pkg/buildctx"
	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
)

func sampleContext() *buildctx.Context {
	return &buildctx.Context{
		CommitHash:       "abc1234",
		CommitMessage:    "Fix parser\n\nHandles empty input.",
		Author:           "Ada",
		Date:             "2026-01-02 03:04:05",
		Branch:           "main",
		Diff:             "+added\n-removed\n",
		DiffStat:         "1 files changed, 1 insertions(+), 1 deletions(-)",
		AffectedFiles:    []string{"parser.go"},
		AffectedPackages: []string{"core", "web"},
		RecentCommits: []buildctx.CommitInfo{
			{Hash: "def5678", Message: "Add parser", Author: "Ada", Date: "2026-01-01"},
		},
		Event: "post-commit",
	}
}

func renderer(t *testing.T, dir string, fallback bool) *Renderer {
	t.Helper()
	return NewRenderer(config.TemplatesConfig{Directory: dir, FallbackBuiltin: fallback})
}

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(content), 0o644))
}

func TestRender_Builtins(t *testing.T) {
	r := renderer(t, t.TempDir(), true)
	c := sampleContext()

	for _, name := range BuiltinNames {
		t.Run(name, func(t *testing.T) {
			out, err := r.Render(name, c)
			require.NoError(t, err)
			assert.Contains(t, out, "main")
			assert.NotContains(t, out, "<no value>")
		})
	}

	out, err := r.Render("review", c)
	require.NoError(t, err)
	assert.Contains(t, out, "abc1234")
	assert.Contains(t, out, "+added\n-removed\n```")
	assert.Contains(t, out, "Affected packages: core, web")
}

func TestRender_ValidateUsesStagedDiff(t *testing.T) {
	r := renderer(t, "", true)
	c := sampleContext()

	out, err := r.Render("validate", c)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing is staged.")

	staged, count := "+secret = 1\n", 1
	c.StagedDiff, c.StagedCount = &staged, &count
	out, err = r.Render("validate", c)
	require.NoError(t, err)
	assert.Contains(t, out, "1 file(s) staged")
	assert.Contains(t, out, "+secret = 1")
}

func TestRender_CustomBeatsBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "review", "custom {{.commit_hash}} on {{.branch}}")
	r := renderer(t, dir, true)

	out, err := r.Render("review", sampleContext())
	require.NoError(t, err)
	assert.Equal(t, "custom abc1234 on main", out)

	tmpl, err := r.Resolve("review")
	require.NoError(t, err)
	assert.Equal(t, dir, tmpl.Origin)
}

func TestRender_NotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := renderer(t, dir, true).Render("release-notes", sampleContext())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTemplateNotFound))
	assert.Contains(t, err.Error(), "release-notes")

	_, err = renderer(t, dir, false).Render("review", sampleContext())
	require.Error(t, err, "builtins are off")
	assert.True(t, errors.IsType(err, errors.ErrTemplateNotFound))
}

func TestRender_RejectsPathNames(t *testing.T) {
	_, err := renderer(t, t.TempDir(), true).Resolve("../review")
	assert.True(t, errors.IsType(err, errors.ErrTemplateNotFound))
}

func TestRender_MissingKeyIsError(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad", "{{.no_such_key}}")

	_, err := renderer(t, dir, false).Render("bad", sampleContext())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTemplateRender))
}

func TestRender_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "broken", "{{if .diff}")

	_, err := renderer(t, dir, false).Render("broken", sampleContext())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTemplateRender))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "review", "x")
	writeTemplate(t, dir, "mine", "x")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	names, err := renderer(t, dir, true).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"changelog", "context", "mine", "review", "summary", "validate"}, names)

	names, err = renderer(t, filepath.Join(dir, "missing"), false).List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestData_Schema(t *testing.T) {
	data := Data(&buildctx.Context{})

	for _, key := range []string{
		"commit_hash", "commit_message", "author", "date", "branch", "diff", "diff_stat",
		"staged_diff", "staged_count", "affected_files", "affected_packages", "recent_commits",
		"event", "batched_events", "file_tree", "monorepo_type",
	} {
		assert.Contains(t, data, key)
	}
	assert.Nil(t, data["staged_diff"])
	assert.Equal(t, []string{}, data["affected_files"])
	assert.Equal(t, "none", data["monorepo_type"])
}

func TestExecute_RecentCommitsAndFuncs(t *testing.T) {
	out, err := Execute("t",
		`{{range .recent_commits}}{{.hash}} {{upper .message}}{{end}} {{join .affected_files "|"}}`,
		Data(sampleContext()))
	require.NoError(t, err)
	assert.Equal(t, "def5678 ADD PARSER parser.go", out)
}
