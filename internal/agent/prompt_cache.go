package agent

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
)

//go:embed prompts/*.tmpl
var embeddedPrompts embed.FS

// Prompt template names.
const (
	PromptSystem        = "system"
	PromptGeneral       = "general"
	PromptStructure     = "structure"
	PromptReviseGeneral = "revise_general"
	PromptWorldbuilding = "worldbuilding"
	PromptCharacters    = "characters"
	PromptChapterSeed   = "chapter_seed"
	PromptChapters      = "chapters"
	PromptSceneSeed     = "scene_seed"
	PromptScenes        = "scenes"
)

// PromptCache caches parsed prompt templates to avoid repeated reads
type PromptCache struct {
	mu        sync.RWMutex
	fsys      fs.FS
	templates map[string]*template.Template
	raw       map[string]string
}

// NewPromptCache creates a cache reading "<name>.tmpl" files from fsys
func NewPromptCache(fsys fs.FS) *PromptCache {
	return &PromptCache{
		fsys:      fsys,
		templates: make(map[string]*template.Template),
		raw:       make(map[string]string),
	}
}

// DefaultPrompts returns a cache over the built-in prompt templates.
func DefaultPrompts() *PromptCache {
	sub, err := fs.Sub(embeddedPrompts, "prompts")
	if err != nil {
		panic(err)
	}
	return NewPromptCache(sub)
}

// LoadPrompt loads a prompt from the file system or cache
func (pc *PromptCache) LoadPrompt(name string) (string, error) {
	pc.mu.RLock()
	if content, ok := pc.raw[name]; ok {
		pc.mu.RUnlock()
		return content, nil
	}
	pc.mu.RUnlock()

	content, err := fs.ReadFile(pc.fsys, name+".tmpl")
	if err != nil {
		return "", fmt.Errorf("reading prompt %s: %w", name, err)
	}

	pc.mu.Lock()
	pc.raw[name] = string(content)
	pc.mu.Unlock()

	return string(content), nil
}

// LoadTemplate loads and parses a template from the file system or cache
func (pc *PromptCache) LoadTemplate(name string) (*template.Template, error) {
	pc.mu.RLock()
	if tmpl, ok := pc.templates[name]; ok {
		pc.mu.RUnlock()
		return tmpl, nil
	}
	pc.mu.RUnlock()

	content, err := pc.LoadPrompt(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}

	pc.mu.Lock()
	pc.templates[name] = tmpl
	pc.mu.Unlock()

	return tmpl, nil
}

// Render executes the named template with data. Surrounding whitespace is
// trimmed.
func (pc *PromptCache) Render(name string, data any) (string, error) {
	tmpl, err := pc.LoadTemplate(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Clear removes all cached prompts and templates
func (pc *PromptCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.templates = make(map[string]*template.Template)
	pc.raw = make(map[string]string)
}

// Preload parses multiple templates into the cache
func (pc *PromptCache) Preload(names []string) error {
	for _, name := range names {
		if _, err := pc.LoadTemplate(name); err != nil {
			return fmt.Errorf("preloading %s: %w", name, err)
		}
	}
	return nil
}

// Stats returns cache statistics
func (pc *PromptCache) Stats() (templates int, raw int) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	return len(pc.templates), len(pc.raw)
}

// AllPrompts lists every built-in template name.
func AllPrompts() []string {
	return []string{
		PromptSystem, PromptGeneral, PromptStructure, PromptReviseGeneral,
		PromptWorldbuilding, PromptCharacters, PromptChapterSeed, PromptChapters,
		PromptSceneSeed, PromptScenes,
	}
}
