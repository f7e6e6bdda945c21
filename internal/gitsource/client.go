package gitsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/uuid"
	"github.com/jywlabs/skillhub/internal/config"
	"github.com/jywlabs/skillhub/internal/fsutil"
	"github.com/jywlabs/skillhub/internal/retry"
	"go.uber.org/zap"
)

// Fetcher is the git capability used by the installer.
type Fetcher interface {
	// ListCandidates returns the skills offered by src, restricted to
	// src.Subpath when it is set.
	ListCandidates(ctx context.Context, src Source) ([]Candidate, error)
	// FetchSkill returns a local directory holding the skill at subpath.
	// The directory stays valid until the Fetcher is closed.
	FetchSkill(ctx context.Context, src Source, subpath string) (string, error)
}

type checkout struct {
	dir     string
	fetched time.Time
}

// Client clones repositories with go-git and keeps each checkout for
// cfg.CacheTTL so that listing and installing share one clone.
type Client struct {
	cfg    config.GitConfig
	logger *zap.Logger

	mu        sync.Mutex
	root      string
	checkouts map[string]*checkout
	now       func() time.Time
}

// NewClient creates a Client. Checkouts live in a temporary directory that
// Close removes.
func NewClient(cfg config.GitConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:       cfg,
		logger:    logger,
		checkouts: make(map[string]*checkout),
		now:       time.Now,
	}
}

// ListCandidates implements Fetcher.
func (c *Client) ListCandidates(ctx context.Context, src Source) ([]Candidate, error) {
	dir, err := c.checkout(ctx, src)
	if err != nil {
		return nil, err
	}
	root := dir
	if src.Subpath != "" {
		root, err = subdir(dir, src.Subpath)
		if err != nil {
			return nil, err
		}
	}
	fallback := src.Name
	if src.Subpath != "" {
		fallback = filepath.Base(filepath.FromSlash(src.Subpath))
	}
	cands, err := Discover(root, fallback)
	if err != nil {
		return nil, err
	}
	if src.Subpath != "" {
		for i := range cands {
			cands[i].Subpath = strings.Trim(src.Subpath+"/"+cands[i].Subpath, "/")
		}
	}
	return cands, nil
}

// FetchSkill implements Fetcher.
func (c *Client) FetchSkill(ctx context.Context, src Source, subpath string) (string, error) {
	dir, err := c.checkout(ctx, src)
	if err != nil {
		return "", err
	}
	if subpath == "" {
		return dir, nil
	}
	return subdir(dir, subpath)
}

// Close removes every checkout.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkouts = make(map[string]*checkout)
	if c.root == "" {
		return nil
	}
	root := c.root
	c.root = ""
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("remove git cache: %w", err)
	}
	return nil
}

func subdir(root, subpath string) (string, error) {
	p := filepath.Join(root, filepath.FromSlash(subpath))
	if !fsutil.Within(p, root) {
		return "", fmt.Errorf("subpath %q escapes the repository", subpath)
	}
	if !fsutil.IsDir(p) {
		return "", &Error{Kind: KindNotFound, URL: subpath, Err: fmt.Errorf("no directory %q in repository", subpath)}
	}
	return p, nil
}

// checkout returns a fresh-enough clone of src, cloning when needed.
// Clones are serialized.
func (c *Client) checkout(ctx context.Context, src Source) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := src.Key()
	if co, ok := c.checkouts[key]; ok {
		if c.cfg.CacheTTL <= 0 || c.now().Sub(co.fetched) < c.cfg.CacheTTL {
			c.logger.Debug("reusing checkout", zap.String("repo", src.String()), zap.String("dir", co.dir))
			return co.dir, nil
		}
		delete(c.checkouts, key)
		_ = os.RemoveAll(co.dir)
	}

	if c.root == "" {
		root, err := os.MkdirTemp("", "skillhub-git-")
		if err != nil {
			return "", fmt.Errorf("create git cache: %w", err)
		}
		c.root = root
	}
	dir := filepath.Join(c.root, uuid.NewString())

	rcfg := retry.Config{
		MaxRetries: c.cfg.MaxRetries,
		BaseDelay:  c.cfg.RetryDelay,
		Retryable:  IsRetryable,
		Logger:     c.logger.With(zap.String("repo", src.String())),
	}
	if rcfg.MaxRetries == 0 {
		rcfg.MaxRetries = -1
	}
	err := retry.Execute(ctx, rcfg, func(ctx context.Context, attempt int) error {
		_ = os.RemoveAll(dir)
		return c.clone(ctx, src, dir)
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", Classify(src.URL, err)
	}

	c.checkouts[key] = &checkout{dir: dir, fetched: c.now()}
	return dir, nil
}

func (c *Client) clone(ctx context.Context, src Source, dir string) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	opts := &git.CloneOptions{
		URL:          src.CloneURL,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
	}
	// Shallow fetches are not supported by every local transport.
	if !src.Local && c.cfg.Depth > 0 {
		opts.Depth = c.cfg.Depth
	}
	if auth := c.auth(src); auth != nil {
		opts.Auth = auth
	}

	start := time.Now()
	c.logger.Info("cloning", zap.String("repo", src.String()), zap.String("branch", src.Branch))
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return Classify(src.URL, err)
	}
	c.logger.Debug("cloned", zap.String("repo", src.String()), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) auth(src Source) transport.AuthMethod {
	if c.cfg.Token == "" || src.Local || !strings.HasPrefix(src.CloneURL, "https://") {
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: c.cfg.Token}
}
