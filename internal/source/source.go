package source

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Stdin is the input that selects standard input instead of a path.
const Stdin = "-"

var errStopWalk = errors.New("stop walk")

// skipDirs are never descended into when walking declaration trees.
var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
}

// Resolve takes an input (local file, local dir, or GitHub URL) and returns
// a local path ready for loading, plus a cleanup function.
func Resolve(ctx context.Context, input string, logger *slog.Logger) (path string, cleanup func(), err error) {
	cleanup = func() {} // default no-op

	if IsRemote(input) {
		return fetchRepo(ctx, input, logger)
	}

	absPath, err := filepath.Abs(input)
	if err != nil {
		return "", cleanup, fmt.Errorf("resolving path: %w", err)
	}

	if _, err := os.Stat(absPath); err != nil {
		return "", cleanup, fmt.Errorf("stat %s: %w", absPath, err)
	}

	logger.Info("resolved local input", "input", input, "path", absPath)
	return absPath, cleanup, nil
}

// Files yields, in lexical order, every file under root whose extension is
// one of exts. A root that is itself a file is yielded as is.
func Files(root string, exts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		info, err := os.Stat(root)
		if err != nil {
			yield("", fmt.Errorf("stat %s: %w", root, err))
			return
		}
		if !info.IsDir() {
			yield(root, nil)
			return
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if !slices.Contains(exts, filepath.Ext(path)) {
				return nil
			}
			if !yield(path, nil) {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			yield("", fmt.Errorf("walking %s: %w", root, err))
		}
	}
}

// ModuleRoot finds the Go module that contains dir, searching upwards
// first and then, for checkouts with nested modules, downwards.
func ModuleRoot(dir string) (string, error) {
	if root, err := findModuleRoot(dir); err == nil {
		return root, nil
	}
	return findModuleRootInTree(dir)
}

// PrepareModule runs go mod download so packages can be type-checked.
// Failure is logged, not returned: offline modules often still load.
func PrepareModule(ctx context.Context, dir string, logger *slog.Logger) {
	if err := goModDownload(ctx, dir, logger); err != nil {
		logger.Warn("go mod download failed", "error", err)
	}
}

// IsRemote reports whether input names a GitHub repository to clone.
func IsRemote(input string) bool {
	return strings.Contains(input, "github.com") &&
		(strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"))
}

// cacheDir returns a stable directory for caching a cloned repo.
// Uses ~/.cache/ifacegen/repos/<hash> where hash is derived from the URL.
func cacheDir(url string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	h := sha256.Sum256([]byte(url))
	name := fmt.Sprintf("%x", h[:8])
	return filepath.Join(home, ".cache", "ifacegen", "repos", name), nil
}

// fetchRepo either refreshes an existing cached clone or does a fresh clone.
// Returns the checkout root and a no-op cleanup (cache is persistent).
func fetchRepo(ctx context.Context, url string, logger *slog.Logger) (string, func(), error) {
	noop := func() {}

	dir, err := cacheDir(url)
	if err != nil {
		return "", noop, err
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return cloneRepo(ctx, url, dir, logger)
	}

	logger.Info("updating cached repository", "url", url, "dir", dir)
	wt, err := repo.Worktree()
	if err == nil {
		err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Depth: 1, Force: true})
	}
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		logger.Warn("git pull failed, will re-clone", "error", err)
		_ = os.RemoveAll(dir)
		return cloneRepo(ctx, url, dir, logger)
	}
	logger.Info("repository updated", "dir", dir)

	return dir, noop, nil
}

func cloneRepo(ctx context.Context, url, dir string, logger *slog.Logger) (string, func(), error) {
	noop := func() {}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", noop, fmt.Errorf("creating cache dir: %w", err)
	}

	logger.Info("cloning repository", "url", url, "dest", dir)

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Depth:    1,
		Progress: os.Stderr,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", noop, fmt.Errorf("git clone %s: %w", url, err)
	}

	logger.Info("clone complete", "dest", dir)
	return dir, noop, nil
}

func findModuleRoot(dir string) (string, error) {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no go.mod found in %s or any parent directory", dir)
		}
		current = parent
	}
}

// findModuleRootInTree returns the shallowest directory under root holding
// a go.mod; ties at the same depth go to the lexically first path.
func findModuleRootInTree(root string) (string, error) {
	best := ""
	bestDepth := -1
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "go.mod" {
			return nil
		}
		dir := filepath.Dir(path)
		depth := strings.Count(filepath.ToSlash(strings.TrimPrefix(dir, root)), "/")
		if bestDepth < 0 || depth < bestDepth {
			best, bestDepth = dir, depth
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking %s: %w", root, err)
	}
	if best == "" {
		return "", fmt.Errorf("no go.mod found in %s or its subdirectories", root)
	}
	return best, nil
}

func goModDownload(ctx context.Context, dir string, logger *slog.Logger) error {
	logger.Debug("running go mod download", "dir", dir)
	cmd := exec.CommandContext(ctx, "go", "mod", "download")
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
