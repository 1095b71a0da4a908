package monover

import (
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
)

// NewCachedHistory wraps a GitHistory in a read-through cache scoped to one
// multi-project run. Tag lists, commit ranges, changed-file sets and
// ancestry answers are keyed by hash pair, so N projects sharing a base tag
// pay for one history walk instead of N. Safe for concurrent use.
func NewCachedHistory(inner GitHistory) GitHistory {
	return &cachedHistory{
		inner:     inner,
		commits:   map[hashPair][]Commit{},
		files:     map[hashPair][]string{},
		ancestry:  map[hashPair]bool{},
		headNames: map[plumbing.Revision]headResult{},
	}
}

type hashPair struct {
	a, b plumbing.Hash
}

type headResult struct {
	branch string
	hash   plumbing.Hash
	err    error
}

type cachedHistory struct {
	inner GitHistory

	mu        sync.Mutex
	tags      []TagRef
	tagsSet   bool
	commits   map[hashPair][]Commit
	files     map[hashPair][]string
	ancestry  map[hashPair]bool
	headNames map[plumbing.Revision]headResult
}

func (c *cachedHistory) Head(commitish plumbing.Revision) (string, plumbing.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.headNames[commitish]; ok {
		return r.branch, r.hash, r.err
	}
	branch, hash, err := c.inner.Head(commitish)
	c.headNames[commitish] = headResult{branch: branch, hash: hash, err: err}
	return branch, hash, err
}

func (c *cachedHistory) ListTags() ([]TagRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tagsSet {
		return c.tags, nil
	}
	tags, err := c.inner.ListTags()
	if err != nil {
		return nil, err
	}
	c.tags = tags
	c.tagsSet = true
	return tags, nil
}

func (c *cachedHistory) CommitsBetween(base, tip plumbing.Hash) ([]Commit, error) {
	key := hashPair{base, tip}

	c.mu.Lock()
	if cached, ok := c.commits[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	commits, err := c.inner.CommitsBetween(base, tip)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.commits[key] = commits
	c.mu.Unlock()
	return commits, nil
}

func (c *cachedHistory) ChangedFilesSince(base, tip plumbing.Hash) ([]string, error) {
	key := hashPair{base, tip}

	c.mu.Lock()
	if cached, ok := c.files[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	files, err := c.inner.ChangedFilesSince(base, tip)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.files[key] = files
	c.mu.Unlock()
	return files, nil
}

func (c *cachedHistory) CommitHeight(base, tip plumbing.Hash) (int, error) {
	commits, err := c.CommitsBetween(base, tip)
	if err != nil {
		return 0, err
	}
	return len(commits), nil
}

func (c *cachedHistory) IsAncestor(candidate, tip plumbing.Hash) (bool, error) {
	key := hashPair{candidate, tip}

	c.mu.Lock()
	if cached, ok := c.ancestry[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	ok, err := c.inner.IsAncestor(candidate, tip)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.ancestry[key] = ok
	c.mu.Unlock()
	return ok, nil
}

func (c *cachedHistory) IsShallow() (bool, error) {
	return c.inner.IsShallow()
}

func (c *cachedHistory) IsDirty() (bool, error) {
	return c.inner.IsDirty()
}
