package skills

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jywlabs/skillhub/internal/central"
	"github.com/jywlabs/skillhub/internal/fsutil"
	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/skillmd"
	"go.uber.org/zap"
)

// InstallResult describes a skill written to the Central Store.
type InstallResult struct {
	SkillID     string
	CentralPath string
	Name        string
	Replaced    bool // an existing skill was overwritten
}

// installRequest is a fully resolved install: content already sits in a
// local directory.
type installRequest struct {
	name       string
	dir        string
	sourceType registry.SourceType
	sourceRef  string
	subpath    string
	branch     string
	overwrite  bool
}

// InstallLocalSkill copies folder into the Central Store. The
// skill is named after the folder. A skill with the same name (compared
// case-insensitively) fails with a SkillExists conflict unless overwrite is
// set, in which case its content is replaced and its id and order kept.
func (e *Engine) InstallLocalSkill(ctx context.Context, folder string, overwrite bool) (*InstallResult, error) {
	dir, err := e.checkLocalDir(folder)
	if err != nil {
		return nil, err
	}
	return e.install(ctx, installRequest{
		name:       filepath.Base(dir),
		dir:        dir,
		sourceType: registry.SourceLocal,
		sourceRef:  dir,
		overwrite:  overwrite,
	})
}

// ImportExistingSkill promotes a skill folder found by the onboarding scan
// into the Central Store. It behaves like InstallLocalSkill.
func (e *Engine) ImportExistingSkill(ctx context.Context, folder string, overwrite bool) (*InstallResult, error) {
	res, err := e.InstallLocalSkill(ctx, folder, overwrite)
	if err == nil {
		e.logger.Info("imported skill", zap.String("name", res.Name), zap.String("from", folder))
	}
	return res, err
}

// checkLocalDir validates a local skill folder and returns its absolute path.
func (e *Engine) checkLocalDir(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", &ValidationError{Field: "path", Message: "must not be empty"}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", ioError(p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", ioError(abs, err)
	}
	if !info.IsDir() {
		return "", malformed(abs, errors.New("not a directory"))
	}
	ok, err := fsutil.HasContent(abs, e.central.Ignore())
	if err != nil {
		return "", ioError(abs, err)
	}
	if !ok {
		return "", malformed(abs, errors.New("folder is empty"))
	}
	return abs, nil
}

// ListGitSkills lists the skills a repository offers without installing
// anything. A repository with no skills fails with NoSkillsFound.
func (e *Engine) ListGitSkills(ctx context.Context, url, branch string) ([]gitsource.Candidate, error) {
	src, err := e.parseSource(url, branch)
	if err != nil {
		return nil, err
	}
	return e.listCandidates(ctx, src)
}

// InstallGitSkill installs the only skill a repository offers. More than one
// candidate fails with a MultiSkills conflict listing them.
func (e *Engine) InstallGitSkill(ctx context.Context, url, branch string, overwrite bool) (*InstallResult, error) {
	src, err := e.parseSource(url, branch)
	if err != nil {
		return nil, err
	}
	cands, err := e.listCandidates(ctx, src)
	if err != nil {
		return nil, err
	}
	if len(cands) > 1 {
		return nil, &ConflictError{Kind: MultiSkills, Candidates: cands}
	}
	return e.installCandidate(ctx, src, cands[0], overwrite)
}

// InstallGitSelection installs the candidate at subpath.
func (e *Engine) InstallGitSelection(ctx context.Context, url, subpath, branch string, overwrite bool) (*InstallResult, error) {
	src, err := e.parseSource(url, branch)
	if err != nil {
		return nil, err
	}
	want := cleanSubpath(subpath)
	if want == "" && strings.TrimSpace(subpath) != "" && strings.TrimSpace(subpath) != "." {
		return nil, &ValidationError{Field: "subpath", Message: fmt.Sprintf("%q is not a repository path", subpath)}
	}
	cands, err := e.listCandidates(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, c := range cands {
		if c.Subpath == want {
			return e.installCandidate(ctx, src, c, overwrite)
		}
	}
	return nil, &NotFoundError{Entity: "candidate", ID: subpath}
}

func (e *Engine) parseSource(url, branch string) (gitsource.Source, error) {
	if e.fetcher == nil {
		return gitsource.Source{}, &ValidationError{Field: "url", Message: "git sources are not available"}
	}
	src, err := gitsource.ParseSource(url, branch)
	if err != nil {
		return gitsource.Source{}, &ValidationError{Field: "url", Message: err.Error()}
	}
	return src, nil
}

func (e *Engine) listCandidates(ctx context.Context, src gitsource.Source) ([]gitsource.Candidate, error) {
	cands, err := e.fetcher.ListCandidates(ctx, src)
	if err != nil {
		return nil, gitError(err)
	}
	if len(cands) == 0 {
		return nil, &SourceError{Kind: SourceNoSkillsFound, Path: src.String()}
	}
	return cands, nil
}

// installCandidate fetches one candidate and installs it. The skill is named
// after its folder, or after the repository for a root-level skill.
func (e *Engine) installCandidate(ctx context.Context, src gitsource.Source, c gitsource.Candidate, overwrite bool) (*InstallResult, error) {
	dir, err := e.fetcher.FetchSkill(ctx, src, c.Subpath)
	if err != nil {
		return nil, gitError(err)
	}
	name := src.Name
	if c.Subpath != "" {
		name = path.Base(c.Subpath)
	}
	res, err := e.install(ctx, installRequest{
		name:       name,
		dir:        dir,
		sourceType: registry.SourceGit,
		sourceRef:  src.CloneURL,
		subpath:    c.Subpath,
		branch:     src.Branch,
		overwrite:  overwrite,
	})
	if err != nil {
		return nil, err
	}
	e.bookmark(ctx, src)
	return res, nil
}

// bookmark records a successfully used repository. Failures are logged only.
func (e *Engine) bookmark(ctx context.Context, src gitsource.Source) {
	if src.Local || src.Owner == "" || src.Name == "" {
		return
	}
	b := &registry.RepoBookmark{Owner: src.Owner, Name: src.Name, Branch: src.Branch, URL: src.CloneURL}
	if err := e.store.UpsertRepo(ctx, b); err != nil {
		e.logger.Warn("failed to bookmark repository", zap.String("repo", src.String()), zap.Error(err))
	}
}

// install writes req into the Central Store and creates or updates the
// skill row.
func (e *Engine) install(ctx context.Context, req installRequest) (*InstallResult, error) {
	if err := central.ValidateName(req.name); err != nil {
		return nil, malformed(req.dir, err)
	}

	unlockName := e.locks.Lock(nameKey(registry.NameKey(req.name)))
	defer unlockName()

	existing, err := e.store.FindSkillByName(ctx, req.name)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		existing = nil
	case err != nil:
		return nil, err
	case !req.overwrite:
		return nil, &ConflictError{Kind: SkillExists, Name: existing.Name}
	}

	manifest, _, err := skillmd.Read(req.dir)
	if err != nil {
		e.logger.Warn("ignoring unreadable manifest", zap.String("path", req.dir), zap.Error(err))
	}

	if existing != nil {
		return e.replace(ctx, existing, req, manifest.Description)
	}

	dest, err := e.central.PathFor(req.name)
	if err != nil {
		return nil, malformed(req.dir, err)
	}
	hash, err := e.central.Install(req.dir, dest)
	if err != nil {
		return nil, ioError(dest, err)
	}

	sk := &registry.Skill{
		ID:            newSkillID(req.name, e.now()),
		Name:          req.name,
		Description:   manifest.Description,
		SourceType:    req.sourceType,
		SourceRef:     req.sourceRef,
		SourceSubpath: req.subpath,
		SourceBranch:  req.branch,
		CentralPath:   dest,
		ContentHash:   hash,
	}
	e.orderMu.Lock()
	err = e.store.CreateSkill(ctx, sk)
	e.orderMu.Unlock()
	if err != nil {
		if rerr := e.central.Remove(dest); rerr != nil {
			e.logger.Warn("failed to roll back central copy", zap.String("path", dest), zap.Error(rerr))
		}
		return nil, err
	}

	e.logger.Info("installed skill",
		zap.String("id", sk.ID),
		zap.String("name", sk.Name),
		zap.String("source", string(sk.SourceType)),
		zap.Int("sort_order", sk.SortOrder))
	return &InstallResult{SkillID: sk.ID, CentralPath: dest, Name: sk.Name}, nil
}

// replace overwrites an existing skill's content in place and refreshes its
// copy-mode materializations.
func (e *Engine) replace(ctx context.Context, sk *registry.Skill, req installRequest, description string) (*InstallResult, error) {
	unlock := e.locks.Lock(skillKey(sk.ID))
	defer unlock()

	hash, err := e.central.Install(req.dir, sk.CentralPath)
	if err != nil {
		return nil, ioError(sk.CentralPath, err)
	}

	sk.Description = description
	sk.SourceType = req.sourceType
	sk.SourceRef = req.sourceRef
	sk.SourceSubpath = req.subpath
	sk.SourceBranch = req.branch
	sk.ContentHash = hash
	if err := e.store.UpdateSkill(ctx, sk); err != nil {
		return nil, err
	}
	e.refreshCopies(ctx, sk)

	e.logger.Info("replaced skill", zap.String("id", sk.ID), zap.String("name", sk.Name))
	return &InstallResult{SkillID: sk.ID, CentralPath: sk.CentralPath, Name: sk.Name, Replaced: true}, nil
}

// UpdateSkill pulls a skill's content again from where it was installed.
func (e *Engine) UpdateSkill(ctx context.Context, id string) (*InstallResult, error) {
	sk, err := e.GetSkill(ctx, id)
	if err != nil {
		return nil, err
	}

	req := installRequest{
		name:       sk.Name,
		sourceType: sk.SourceType,
		sourceRef:  sk.SourceRef,
		subpath:    sk.SourceSubpath,
		branch:     sk.SourceBranch,
		overwrite:  true,
	}
	var src gitsource.Source
	switch sk.SourceType {
	case registry.SourceGit:
		src, err = e.parseSource(sk.SourceRef, sk.SourceBranch)
		if err != nil {
			return nil, err
		}
		src.Subpath = ""
		req.dir, err = e.fetcher.FetchSkill(ctx, src, sk.SourceSubpath)
		if err != nil {
			return nil, gitError(err)
		}
	default:
		if fsutil.SamePath(sk.SourceRef, sk.CentralPath) {
			return nil, &ValidationError{Field: "source", Message: "skill has no source outside the central store"}
		}
		req.dir, err = e.checkLocalDir(sk.SourceRef)
		if err != nil {
			return nil, err
		}
	}

	res, err := e.install(ctx, req)
	if err != nil {
		return nil, err
	}
	if sk.SourceType == registry.SourceGit {
		e.bookmark(ctx, src)
	}
	return res, nil
}

func cleanSubpath(p string) string {
	p = strings.Trim(filepath.ToSlash(strings.TrimSpace(p)), "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." || strings.HasPrefix(p, "..") {
		return ""
	}
	return p
}
