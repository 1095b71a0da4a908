package monover

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC),
}

// testClock is a fixed instant for CalVer tests: November 2025.
var testClock = time.Date(2025, 11, 15, 9, 30, 0, 0, time.UTC)

// testRepoCreate creates a new in-memory git repository for testing.
// The initial branch is "master".
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testCommitFile writes one file and commits it with the given message,
// returning the commit hash.
func testCommitFile(repo *git.Repository, path, content, message string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := writeFile(workTree.Filesystem, path, content); err != nil {
		return plumbing.ZeroHash, err
	}

	if _, err := workTree.Add(path); err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit(message, &git.CommitOptions{Author: testSignature, Committer: testSignature})
}

// testTag creates a lightweight tag pointing at the given commit.
func testTag(repo *git.Repository, name string, hash plumbing.Hash) error {
	_, err := repo.CreateTag(name, hash, nil)
	return err
}

// testCheckoutNewBranch creates and checks out a branch at the current HEAD.
func testCheckoutNewBranch(repo *git.Repository, name string) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}
	return workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
}

// testTaggedRepo builds a repo with one commit tagged as given: the common
// starting point for resolution tests.
func testTaggedRepo(tags ...string) (*git.Repository, plumbing.Hash, error) {
	repo, err := testRepoCreate()
	if err != nil {
		return nil, plumbing.ZeroHash, err
	}
	hash, err := testCommitFile(repo, "README.md", "hello", "Initial commit")
	if err != nil {
		return nil, plumbing.ZeroHash, err
	}
	for _, tag := range tags {
		if err := testTag(repo, tag, hash); err != nil {
			return nil, plumbing.ZeroHash, err
		}
	}
	return repo, hash, nil
}

// writeFile writes content to a file in the given filesystem, creating
// parent directories as needed.
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
