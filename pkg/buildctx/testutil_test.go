package buildctx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/gitclaude/gitclaude/pkg/config"
)

var baseTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// testRepo is a throwaway on-disk repository.
type testRepo struct {
	t       *testing.T
	dir     string
	repo    *git.Repository
	wt      *git.Worktree
	commits int
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (r *testRepo) write(name, content string) {
	r.t.Helper()
	p := filepath.Join(r.dir, filepath.FromSlash(name))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(r.t, os.WriteFile(p, []byte(content), 0o644))
}

func (r *testRepo) remove(name string) {
	r.t.Helper()
	require.NoError(r.t, os.Remove(filepath.Join(r.dir, filepath.FromSlash(name))))
}

func (r *testRepo) stage(name string) {
	r.t.Helper()
	_, err := r.wt.Add(name)
	require.NoError(r.t, err)
}

func (r *testRepo) commit(msg string) plumbing.Hash {
	r.t.Helper()
	require.NoError(r.t, r.wt.AddWithOptions(&git.AddOptions{All: true}))

	sig := &object.Signature{
		Name:  "Ada",
		Email: "ada@example.com",
		When:  baseTime.Add(time.Duration(r.commits) * time.Hour),
	}
	r.commits++

	h, err := r.wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err)
	return h
}

func (r *testRepo) open() *Repository {
	r.t.Helper()
	repo, err := OpenRepository(r.dir)
	require.NoError(r.t, err)
	return repo
}

func (r *testRepo) assembler(mutate ...func(*config.Config)) *Assembler {
	r.t.Helper()
	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	return NewAssembler(r.open(), cfg)
}

func (r *testRepo) tree(h plumbing.Hash) *object.Tree {
	r.t.Helper()
	c, err := r.repo.CommitObject(h)
	require.NoError(r.t, err)
	tree, err := c.Tree()
	require.NoError(r.t, err)
	return tree
}
