package monover

import (
	"fmt"
	"os/exec"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// GitHistory is the repository access port the resolver depends on. The
// production implementation wraps go-git; tests may substitute their own.
// All methods are safe for concurrent readers as long as the backing
// repository handle is.
type GitHistory interface {
	// Head resolves the commitish to a tip hash and reports the checked-out
	// branch name (empty when detached or when commitish is not HEAD).
	// Returns ErrEmptyHistory when the repository has no commits.
	Head(commitish plumbing.Revision) (string, plumbing.Hash, error)

	// ListTags enumerates every tag, annotated tags resolved to their
	// target commit.
	ListTags() ([]TagRef, error)

	// CommitsBetween lists commits reachable from tip but not from base,
	// newest first. A zero base means the full history.
	CommitsBetween(base, tip plumbing.Hash) ([]Commit, error)

	// ChangedFilesSince returns the distinct paths touched by the commits
	// between base and tip. Submodule pointer moves surface as their path.
	ChangedFilesSince(base, tip plumbing.Hash) ([]string, error)

	// CommitHeight counts the commits between base and tip.
	CommitHeight(base, tip plumbing.Hash) (int, error)

	// IsAncestor reports whether candidate is reachable from tip.
	IsAncestor(candidate, tip plumbing.Hash) (bool, error)

	// IsShallow reports whether the clone has truncated history.
	IsShallow() (bool, error)

	// IsDirty reports whether the worktree has uncommitted changes.
	IsDirty() (bool, error)
}

// OpenRepository opens a Git repository at the specified path, searching
// parent directories for the .git directory.
func OpenRepository(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRepositoryNotFound, path, err)
	}
	return repo, nil
}

// NewGitHistory wraps a go-git repository in the GitHistory port.
func NewGitHistory(repo *git.Repository) GitHistory {
	return &repoHistory{repo: repo}
}

type repoHistory struct {
	repo *git.Repository
}

func (h *repoHistory) Head(commitish plumbing.Revision) (string, plumbing.Hash, error) {
	if commitish == "" {
		commitish = "HEAD"
	}

	hash, err := h.repo.ResolveRevision(commitish)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return "", plumbing.ZeroHash, ErrEmptyHistory
		}
		return "", plumbing.ZeroHash, fmt.Errorf("resolving %q: %w", commitish, err)
	}

	branch := ""
	if head, err := h.repo.Head(); err == nil && head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	return branch, *hash, nil
}

func (h *repoHistory) ListTags() ([]TagRef, error) {
	tags, err := h.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var refs []TagRef
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		target := ref.Hash()
		if obj, err := h.repo.TagObject(ref.Hash()); err == nil {
			// Annotated tag; point at the tagged commit.
			target = obj.Target
		} else if err != plumbing.ErrObjectNotFound {
			return err
		}

		refs = append(refs, TagRef{Name: ref.Name().Short(), Hash: target})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking tags: %w", err)
	}

	return refs, nil
}

func (h *repoHistory) CommitsBetween(base, tip plumbing.Hash) ([]Commit, error) {
	tipCommit, err := h.repo.CommitObject(tip)
	if err != nil {
		return nil, fmt.Errorf("getting commit object: %w", err)
	}

	var ignore []plumbing.Hash
	if base != plumbing.ZeroHash {
		ignore = []plumbing.Hash{base}
	}

	var commits []Commit
	walker := object.NewCommitPreorderIter(tipCommit, nil, ignore)
	err = walker.ForEach(func(c *object.Commit) error {
		commit := Commit{
			Hash:    c.Hash,
			Message: c.Message,
			When:    c.Committer.When,
		}
		if stats, serr := c.Stats(); serr == nil {
			// Stats can fail on boundary commits of shallow clones; the
			// commit still counts, just without file attribution.
			for _, fs := range stats {
				commit.Files = append(commit.Files, fs.Name)
			}
		}
		commits = append(commits, commit)
		return nil
	})
	if err != nil && err != plumbing.ErrObjectNotFound {
		// Object-not-found means we walked off the shallow boundary; what we
		// collected up to there is still usable.
		return nil, fmt.Errorf("walking commits: %w", err)
	}

	return commits, nil
}

func (h *repoHistory) ChangedFilesSince(base, tip plumbing.Hash) ([]string, error) {
	commits, err := h.CommitsBetween(base, tip)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, c := range commits {
		for _, f := range c.Files {
			seen[f] = struct{}{}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func (h *repoHistory) CommitHeight(base, tip plumbing.Hash) (int, error) {
	commits, err := h.CommitsBetween(base, tip)
	if err != nil {
		return 0, err
	}
	return len(commits), nil
}

func (h *repoHistory) IsAncestor(candidate, tip plumbing.Hash) (bool, error) {
	if candidate == tip {
		return true, nil
	}

	candidateCommit, err := h.repo.CommitObject(candidate)
	if err != nil {
		return false, fmt.Errorf("getting candidate commit: %w", err)
	}
	tipCommit, err := h.repo.CommitObject(tip)
	if err != nil {
		return false, fmt.Errorf("getting tip commit: %w", err)
	}

	return candidateCommit.IsAncestor(tipCommit)
}

func (h *repoHistory) IsShallow() (bool, error) {
	shallow, err := h.repo.Storer.Shallow()
	if err != nil {
		return false, fmt.Errorf("reading shallow roots: %w", err)
	}
	return len(shallow) > 0, nil
}

func (h *repoHistory) IsDirty() (bool, error) {
	workTree, err := h.repo.Worktree()
	if err != nil {
		if err == git.ErrIsBareRepository {
			return false, nil
		}
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	// Fast path for filesystem storage
	if _, ok := h.repo.Storer.(*filesystem.Storage); ok {
		return checkDirtyWithGitCommand(workTree.Filesystem.Root())
	}

	// Fallback to go-git status check
	status, err := workTree.Status()
	if err != nil {
		return false, fmt.Errorf("getting git status: %w", err)
	}

	return !status.IsClean(), nil
}

func checkDirtyWithGitCommand(repoPath string) (bool, error) {
	// Refresh index first
	cmd := exec.Command("git", "update-index", "-q", "--refresh")
	cmd.Dir = repoPath
	if err := cmd.Run(); err != nil {
		// If update-index fails, assume dirty
		return true, nil
	}

	// Check for changes
	cmd = exec.Command("git", "diff-files", "--name-status", "--ignore-space-at-eol")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return true, nil
		}
		return false, err
	}

	return len(output) > 0, nil
}
