package agent

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestPromptCache(t *testing.T) {
	fsys := fstest.MapFS{
		"greeting.tmpl": {Data: []byte("Hello {{.Name}}\n")},
		"plain.tmpl":    {Data: []byte("No variables here")},
	}

	cache := NewPromptCache(fsys)

	t.Run("loads prompt from file system", func(t *testing.T) {
		content, err := cache.LoadPrompt("greeting")
		if err != nil {
			t.Fatalf("LoadPrompt() error = %v", err)
		}
		if content != "Hello {{.Name}}\n" {
			t.Errorf("LoadPrompt() = %q", content)
		}
	})

	t.Run("caches prompt content", func(t *testing.T) {
		fsys["greeting.tmpl"] = &fstest.MapFile{Data: []byte("Modified")}

		content, err := cache.LoadPrompt("greeting")
		if err != nil {
			t.Fatal(err)
		}
		if content != "Hello {{.Name}}\n" {
			t.Errorf("LoadPrompt() = %q, want cached content", content)
		}
	})

	t.Run("renders and trims", func(t *testing.T) {
		out, err := cache.Render("greeting", map[string]string{"Name": "Mittens"})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if out != "Hello Mittens" {
			t.Errorf("Render() = %q, want %q", out, "Hello Mittens")
		}
	})

	t.Run("missing keys fail", func(t *testing.T) {
		if _, err := cache.Render("greeting", map[string]string{}); err == nil {
			t.Error("Render() with missing key should return error")
		}
	})

	t.Run("preload multiple templates", func(t *testing.T) {
		newCache := NewPromptCache(fsys)
		if err := newCache.Preload([]string{"greeting", "plain"}); err != nil {
			t.Fatalf("Preload() error = %v", err)
		}
		templates, raw := newCache.Stats()
		if templates != 2 || raw != 2 {
			t.Errorf("Stats() = (%d, %d), want (2, 2)", templates, raw)
		}
	})

	t.Run("clear cache", func(t *testing.T) {
		cache.Clear()
		templates, raw := cache.Stats()
		if templates != 0 || raw != 0 {
			t.Errorf("Stats() after Clear() = (%d, %d), want (0, 0)", templates, raw)
		}
	})

	t.Run("handles missing file", func(t *testing.T) {
		if _, err := cache.LoadPrompt("nonexistent"); err == nil {
			t.Error("LoadPrompt() with nonexistent file should return error")
		}
	})
}

func TestDefaultPromptsParse(t *testing.T) {
	prompts := DefaultPrompts()
	if err := prompts.Preload(AllPrompts()); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}

	system, err := prompts.Render(PromptSystem, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(system, "You are an experienced story author.") {
		t.Errorf("system prompt = %q", system)
	}

	general, err := prompts.Render(PromptGeneral, map[string]string{"Premise": "a cat gets superpowers"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(general, "Premise: a cat gets superpowers") {
		t.Errorf("general prompt does not carry the premise: %q", general)
	}
}
