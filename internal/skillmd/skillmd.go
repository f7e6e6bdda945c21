// Package skillmd reads the optional SKILL.md manifest at the root of a skill
// directory. The manifest is markdown with YAML frontmatter delimited by
// "---" lines; only name and description are interpreted.
package skillmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest file name looked up in a skill directory.
const FileName = "SKILL.md"

// Manifest is the parsed frontmatter of a SKILL.md file.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Parse extracts the frontmatter from SKILL.md content. Content without
// frontmatter yields an empty Manifest. A description missing from the
// frontmatter falls back to the first non-heading paragraph line.
func Parse(content []byte) (Manifest, error) {
	var m Manifest
	front, body, ok := splitFrontmatter(content)
	if ok {
		if err := yaml.Unmarshal(front, &m); err != nil {
			return Manifest{}, fmt.Errorf("parse frontmatter: %w", err)
		}
	}
	m.Name = strings.TrimSpace(m.Name)
	m.Description = strings.TrimSpace(m.Description)
	if m.Description == "" {
		m.Description = firstParagraphLine(body)
	}
	return m, nil
}

// Read parses dir/SKILL.md. A missing manifest is not an error.
func Read(dir string) (Manifest, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return Manifest{}, false, nil
	}
	if err != nil {
		return Manifest{}, false, fmt.Errorf("read %s: %w", FileName, err)
	}
	m, err := Parse(data)
	if err != nil {
		return Manifest{}, true, err
	}
	return m, true, nil
}

func splitFrontmatter(content []byte) (front, body []byte, ok bool) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		lines    []string
		inFront  bool
		frontEnd = -1
	)
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		if strings.TrimSpace(line) != "---" {
			continue
		}
		if len(lines) == 1 {
			inFront = true
			continue
		}
		if inFront {
			frontEnd = len(lines) - 1
			break
		}
	}
	if !inFront || frontEnd < 0 {
		return nil, content, false
	}
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	front = []byte(strings.Join(lines[1:frontEnd], "\n"))
	body = []byte(strings.Join(lines[frontEnd+1:], "\n"))
	return front, body, true
}

func firstParagraphLine(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "---" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		return line
	}
	return ""
}
