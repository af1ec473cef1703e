package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ErrNotRepository is returned by Open when no repository contains the directory.
var ErrNotRepository = errors.New("not inside a git repository")

// Update is the last commit that touched a file.
type Update struct {
	Time   time.Time
	Author string
}

// History answers last-update queries for files of one repository. Results are cached.
type History struct {
	repo *git.Repository
	root string

	mu    sync.Mutex
	cache map[string]*Update
}

// Open finds the repository containing dir, walking up parent directories.
func Open(dir string) (*History, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	return &History{repo: repo, root: wt.Filesystem.Root(), cache: map[string]*Update{}}, nil
}

// Root returns the worktree root.
func (h *History) Root() string { return h.root }

// LastUpdate returns the newest commit touching path. ok is false for untracked files.
func (h *History) LastUpdate(path string) (Update, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Update{}, false, err
	}
	rel, err := filepath.Rel(h.root, abs)
	if err != nil {
		return Update{}, false, err
	}
	rel = filepath.ToSlash(rel)

	h.mu.Lock()
	defer h.mu.Unlock()
	if u, cached := h.cache[rel]; cached {
		if u == nil {
			return Update{}, false, nil
		}
		return *u, true, nil
	}

	u, err := h.lookup(rel)
	if err != nil {
		return Update{}, false, err
	}
	h.cache[rel] = u
	if u == nil {
		return Update{}, false, nil
	}
	return *u, true, nil
}

func (h *History) lookup(rel string) (*Update, error) {
	head, err := h.repo.Head()
	if err != nil {
		// An empty repository has no HEAD yet.
		return nil, nil //nolint:nilerr // no history is not an error
	}
	iter, err := h.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &rel, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read history of %s: %w", rel, err)
	}
	defer iter.Close()

	var found *Update
	err = iter.ForEach(func(c *object.Commit) error {
		found = &Update{Time: c.Author.When, Author: c.Author.Name}
		return storer.ErrStop
	})
	if err != nil {
		return nil, fmt.Errorf("read history of %s: %w", rel, err)
	}
	return found, nil
}

// Invalidate drops cached answers, for use after the worktree changes.
func (h *History) Invalidate() {
	h.mu.Lock()
	h.cache = map[string]*Update{}
	h.mu.Unlock()
}
