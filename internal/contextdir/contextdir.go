// Package contextdir detects and collects the project files a critic
// needs to judge a plan: spec documents, files the plan mentions, and
// files defining identifiers the plan references in backticks.
package contextdir

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Result holds the collected context for one review.
type Result struct {
	// Plan is the artifact under review.
	Plan string

	// Files lists the collected paths, relative to the project root,
	// in collection order.
	Files []string

	// Contents maps each collected path to its (possibly truncated)
	// content.
	Contents map[string]string
}

// PromptContext renders every collected file for the critic prompt,
// verbatim, in Files order.
func (r *Result) PromptContext() string {
	var parts []string
	for _, path := range r.Files {
		parts = append(parts, fmt.Sprintf("## File: %s\n```\n%s\n```", path, r.Contents[path]))
	}
	return strings.Join(parts, "\n\n")
}

// Collector scans a project root for review context.
type Collector struct {
	root     string
	specsDir string
	maxBytes int
	git      Runner
}

// NewCollector creates a collector rooted at the project directory.
// specsDir names a directory whose markdown files are always offered as
// context (empty disables); maxBytes truncates each collected file
// (0 = unlimited).
func NewCollector(root, specsDir string, maxBytes int) *Collector {
	return &Collector{
		root:     root,
		specsDir: specsDir,
		maxBytes: maxBytes,
		git:      osRunner{},
	}
}

// SetGitRunner replaces the git runner. Intended for tests.
func (c *Collector) SetGitRunner(r Runner) {
	if r == nil {
		r = osRunner{}
	}
	c.git = r
}

// filePattern matches path-like mentions with a known source extension
// (e.g. internal/loop/manager.go, ./docs/plan.md).
var filePattern = regexp.MustCompile(`[\w./-]+\.(?:go|py|ts|js|md|yaml|yml|json)`)

// codeRefPattern matches backticked identifiers (e.g. `AdvanceIteration`).
var codeRefPattern = regexp.MustCompile("`(\\w+)`")

// defPatterns maps source extensions to the definition forms searched
// for a referenced identifier.
var defPatterns = map[string][]string{
	".go": {"func %s(", "type %s "},
	".py": {"def %s(", "class %s"},
}

var skipDirs = map[string]bool{
	".git":         true,
	".parley":      true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// AutoDetect returns the project files relevant to the plan, sorted:
// every markdown file under the specs directory, every existing path
// the plan mentions (glob patterns allowed), and every file defining a
// backticked identifier.
func (c *Collector) AutoDetect(plan string) []string {
	detected := make(map[string]bool)

	if c.specsDir != "" {
		specsRoot := filepath.Join(c.root, c.specsDir)
		filepath.WalkDir(specsRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if strings.HasSuffix(d.Name(), ".md") {
				if rel, relErr := filepath.Rel(c.root, path); relErr == nil {
					detected[rel] = true
				}
			}
			return nil
		})
	}

	for _, match := range filePattern.FindAllString(plan, -1) {
		path := strings.TrimPrefix(match, "./")
		if fileExists(filepath.Join(c.root, path)) {
			detected[path] = true
			continue
		}
		// The mention may be a glob pattern
		matches, err := filepath.Glob(filepath.Join(c.root, path))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !fileExists(m) {
				continue
			}
			if rel, relErr := filepath.Rel(c.root, m); relErr == nil {
				detected[rel] = true
			}
		}
	}

	for _, groups := range codeRefPattern.FindAllStringSubmatch(plan, -1) {
		ref := groups[1]
		if len(ref) < 3 {
			continue
		}
		for _, path := range c.findDefinition(ref) {
			detected[path] = true
		}
	}

	files := make([]string, 0, len(detected))
	for path := range detected {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// findDefinition returns the files defining the named function or type.
func (c *Collector) findDefinition(name string) []string {
	var found []string
	filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		patterns, ok := defPatterns[filepath.Ext(path)]
		if !ok {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		content := string(data)
		for _, p := range patterns {
			if strings.Contains(content, fmt.Sprintf(p, name)) {
				if rel, relErr := filepath.Rel(c.root, path); relErr == nil {
					found = append(found, rel)
				}
				break
			}
		}
		return nil
	})
	return found
}

// Collect reads the given files into a Result, preserving order,
// skipping duplicates and anything unreadable.
func (c *Collector) Collect(plan string, files []string) *Result {
	res := &Result{Plan: plan, Contents: make(map[string]string)}
	for _, path := range files {
		if _, ok := res.Contents[path]; ok {
			continue
		}
		content, err := c.readFile(path)
		if err != nil {
			continue
		}
		res.Files = append(res.Files, path)
		res.Contents[path] = content
	}
	return res
}

// Add returns a copy of res with the additional files collected.
// Already-present and unreadable files are skipped.
func (c *Collector) Add(res *Result, files []string) *Result {
	out := res.copy()
	for _, path := range files {
		if _, ok := out.Contents[path]; ok {
			continue
		}
		content, err := c.readFile(path)
		if err != nil {
			continue
		}
		out.Files = append(out.Files, path)
		out.Contents[path] = content
	}
	return out
}

// Remove returns a copy of res without the given files.
func (c *Collector) Remove(res *Result, files []string) *Result {
	drop := make(map[string]bool, len(files))
	for _, path := range files {
		drop[path] = true
	}

	out := &Result{Plan: res.Plan, Contents: make(map[string]string)}
	for _, path := range res.Files {
		if drop[path] {
			continue
		}
		out.Files = append(out.Files, path)
		out.Contents[path] = res.Contents[path]
	}
	return out
}

func (r *Result) copy() *Result {
	out := &Result{
		Plan:     r.Plan,
		Files:    make([]string, len(r.Files)),
		Contents: make(map[string]string, len(r.Contents)),
	}
	copy(out.Files, r.Files)
	for k, v := range r.Contents {
		out.Contents[k] = v
	}
	return out
}

func (c *Collector) readFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.root, path))
	if err != nil {
		return "", err
	}
	if c.maxBytes > 0 && len(data) > c.maxBytes {
		data = data[:c.maxBytes]
	}
	return string(data), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
