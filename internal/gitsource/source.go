// Package gitsource fetches skill folders from git repositories and lists the
// skills a repository offers.
package gitsource

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Source identifies a repository, optionally narrowed to a branch and a
// folder inside it.
type Source struct {
	URL      string // as given by the user
	CloneURL string // what is handed to the transport
	Owner    string
	Name     string
	Branch   string // empty means the remote default branch
	Subpath  string // slash separated, relative to the repository root
	Local    bool   // CloneURL is a path on this machine
}

// Key identifies a checkout of this source regardless of Subpath.
func (s Source) Key() string {
	return s.CloneURL + "#" + s.Branch
}

// String returns the user-facing form of the source.
func (s Source) String() string {
	if s.Owner != "" && s.Name != "" {
		return s.Owner + "/" + s.Name
	}
	return s.URL
}

var shorthandPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// ParseSource interprets raw as a local repository path, an "owner/repo"
// GitHub shorthand, a GitHub web URL (including /tree/<branch>/<subpath>
// links) or any other git URL. A non-empty branch overrides the one named
// in the URL.
func ParseSource(raw, branch string) (Source, error) {
	raw = strings.TrimSpace(raw)
	branch = strings.TrimSpace(branch)
	if raw == "" {
		return Source{}, fmt.Errorf("empty repository url")
	}

	var (
		src Source
		err error
	)
	switch {
	case strings.HasPrefix(raw, "file://"):
		src = localSource(raw, strings.TrimPrefix(raw, "file://"))
	case isLocalPath(raw):
		src = localSource(raw, raw)
	case shorthandPattern.MatchString(raw):
		owner, name, _ := strings.Cut(raw, "/")
		name = strings.TrimSuffix(name, ".git")
		src = Source{
			URL:      raw,
			CloneURL: "https://github.com/" + owner + "/" + name + ".git",
			Owner:    owner,
			Name:     name,
		}
	case strings.HasPrefix(raw, "git@") || strings.HasPrefix(raw, "ssh://"):
		src = scpSource(raw)
	default:
		src, err = webSource(raw)
		if err != nil {
			return Source{}, err
		}
	}

	if branch != "" {
		src.Branch = branch
	}
	src.Subpath = cleanSubpath(src.Subpath)
	if strings.HasPrefix(src.Subpath, "..") {
		return Source{}, fmt.Errorf("subpath %q escapes the repository", src.Subpath)
	}
	return src, nil
}

func isLocalPath(raw string) bool {
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "./") ||
		strings.HasPrefix(raw, "../") || strings.HasPrefix(raw, "~") || filepath.IsAbs(raw) {
		return true
	}
	_, err := os.Stat(raw)
	return err == nil
}

func localSource(raw, p string) Source {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return Source{
		URL:      raw,
		CloneURL: p,
		Name:     strings.TrimSuffix(filepath.Base(p), ".git"),
		Local:    true,
	}
}

// scpSource handles git@host:owner/repo.git and ssh:// URLs.
func scpSource(raw string) Source {
	src := Source{URL: raw, CloneURL: raw}
	rest := raw
	if strings.HasPrefix(raw, "ssh://") {
		if u, err := url.Parse(raw); err == nil {
			rest = u.Path
		}
	} else if _, after, ok := strings.Cut(raw, ":"); ok {
		rest = after
	}
	src.Owner, src.Name = ownerName(strings.Split(strings.Trim(rest, "/"), "/"))
	return src
}

func webSource(raw string) (Source, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Source{}, fmt.Errorf("parse repository url %q: %w", raw, err)
	}
	if u.Host == "" {
		return Source{}, fmt.Errorf("repository url %q has no host", raw)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return Source{}, fmt.Errorf("repository url %q does not name a repository", raw)
	}

	src := Source{URL: raw}
	if strings.EqualFold(u.Host, "github.com") || strings.EqualFold(u.Host, "www.github.com") {
		owner := segments[0]
		name := strings.TrimSuffix(segments[1], ".git")
		src.Owner, src.Name = owner, name
		src.CloneURL = "https://github.com/" + owner + "/" + name + ".git"
		// /owner/repo/tree/<branch>/<subpath...>
		if len(segments) >= 4 && (segments[2] == "tree" || segments[2] == "blob") {
			src.Branch = segments[3]
			src.Subpath = strings.Join(segments[4:], "/")
		}
		return src, nil
	}

	u.RawQuery, u.Fragment = "", ""
	src.CloneURL = u.String()
	src.Owner, src.Name = ownerName(segments)
	return src, nil
}

func ownerName(segments []string) (owner, name string) {
	switch n := len(segments); {
	case n >= 2:
		return segments[n-2], strings.TrimSuffix(segments[n-1], ".git")
	case n == 1:
		return "", strings.TrimSuffix(segments[0], ".git")
	}
	return "", ""
}

func cleanSubpath(p string) string {
	p = strings.Trim(filepath.ToSlash(strings.TrimSpace(p)), "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}
