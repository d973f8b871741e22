package editlearn

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// ErrNoHeadVersion indicates the file has no committed version at HEAD.
var ErrNoHeadVersion = errors.New("no committed version at HEAD")

// HeadContent returns the content of path as committed at HEAD in the
// repository containing root. path may be absolute or relative to root.
func HeadContent(root, path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHeadVersion, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHeadVersion, err)
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHeadVersion, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHeadVersion, err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("reading HEAD commit: %w", err)
	}
	file, err := commit.File(filepath.ToSlash(rel))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNoHeadVersion, rel, err)
	}
	return file.Contents()
}
