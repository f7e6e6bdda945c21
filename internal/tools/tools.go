// Package tools knows where each AI coding tool keeps its skills.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/jywlabs/skillhub/internal/registry"
)

// ErrUnknownTool is returned by Lookup for ids that match no adapter.
var ErrUnknownTool = errors.New("unknown tool")

// Adapter describes one tool's skills-directory convention.
type Adapter struct {
	ID        string
	Label     string
	SkillsDir string // relative to home
	DetectDir string // existence means the tool is installed
	NoLink    bool   // tool does not follow symlinked skill folders
	Custom    bool
}

// Info is an adapter resolved against a home directory.
type Info struct {
	ID            string
	Label         string
	Installed     bool
	SkillsRoot    string
	DetectPath    string
	LinkSupported bool
	Custom        bool
}

// builtins holds registered built-in adapters in registration order.
var builtins []Adapter

func register(a Adapter) {
	builtins = append(builtins, a)
}

// Builtins returns a copy of the built-in adapters.
func Builtins() []Adapter {
	out := make([]Adapter, len(builtins))
	copy(out, builtins)
	return out
}

// CustomSource supplies user-defined tools.
type CustomSource interface {
	ListCustomTools(ctx context.Context) ([]*registry.CustomTool, error)
}

// Registry resolves built-in and custom adapters against a home directory.
type Registry struct {
	home   string
	custom CustomSource
}

// NewRegistry creates a Registry. custom may be nil.
func NewRegistry(home string, custom CustomSource) *Registry {
	return &Registry{home: home, custom: custom}
}

// Home returns the base directory tool paths are resolved against.
func (r *Registry) Home() string {
	return r.home
}

// Adapters returns built-in adapters followed by custom ones.
func (r *Registry) Adapters(ctx context.Context) ([]Adapter, error) {
	adapters := Builtins()
	if r.custom == nil {
		return adapters, nil
	}
	custom, err := r.custom.ListCustomTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("load custom tools: %w", err)
	}
	for _, ct := range custom {
		adapters = append(adapters, Adapter{
			ID:        ct.Key,
			Label:     ct.Label,
			SkillsDir: ct.SkillsDir,
			DetectDir: ct.DetectDir,
			Custom:    true,
		})
	}
	return adapters, nil
}

// Tools returns every known tool with its installed flag and skills root.
func (r *Registry) Tools(ctx context.Context) ([]Info, error) {
	adapters, err := r.Adapters(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, r.Resolve(a))
	}
	return out, nil
}

// Lookup returns one tool by id.
func (r *Registry) Lookup(ctx context.Context, id string) (Info, error) {
	adapters, err := r.Adapters(ctx)
	if err != nil {
		return Info{}, err
	}
	for _, a := range adapters {
		if a.ID == id {
			return r.Resolve(a), nil
		}
	}
	return Info{}, fmt.Errorf("%w: %s", ErrUnknownTool, id)
}

// Resolve turns an adapter into absolute paths under the registry's home.
func (r *Registry) Resolve(a Adapter) Info {
	detect := r.join(a.DetectDir)
	info, err := os.Stat(detect)
	return Info{
		ID:            a.ID,
		Label:         a.Label,
		Installed:     err == nil && info.IsDir(),
		SkillsRoot:    r.join(a.SkillsDir),
		DetectPath:    detect,
		LinkSupported: !a.NoLink && runtime.GOOS != "windows",
		Custom:        a.Custom,
	}
}

// join normalizes forward-slash config paths into native separators.
func (r *Registry) join(rel string) string {
	return filepath.Join(r.home, filepath.FromSlash(rel))
}

var keyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateCustom checks a custom tool definition before it is saved.
func ValidateCustom(ct *registry.CustomTool) error {
	if !keyRe.MatchString(ct.Key) {
		return fmt.Errorf("tool key %q must be lowercase letters, digits, '-' or '_'", ct.Key)
	}
	for _, a := range builtins {
		if a.ID == ct.Key {
			return fmt.Errorf("tool key %q is reserved by a built-in tool", ct.Key)
		}
	}
	if strings.TrimSpace(ct.Label) == "" {
		ct.Label = ct.Key
	}
	for field, dir := range map[string]string{"skills dir": ct.SkillsDir, "detect dir": ct.DetectDir} {
		if dir == "" {
			return fmt.Errorf("%s must not be empty", field)
		}
		clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(dir)))
		if filepath.IsAbs(dir) || clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("%s %q must be relative to the home directory", field, dir)
		}
	}
	return nil
}
