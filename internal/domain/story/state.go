// Package story holds the story outline data model: the accumulated state a
// generation run builds stage by stage, its structure skeletons, and the
// rules every generated record has to satisfy.
package story

import (
	"errors"
	"fmt"
	"strings"
)

// State is the root aggregate of one story run.
type State struct {
	General       *General       `json:"general" yaml:"general"`
	Structure     *Structure     `json:"structure,omitempty" yaml:"structure,omitempty"`
	Worldbuilding *Worldbuilding `json:"worldbuilding,omitempty" yaml:"worldbuilding,omitempty"`
	Characters    []Character    `json:"characters" yaml:"characters"`
	Chapters      []Chapter      `json:"chapters" yaml:"chapters"`
}

// NewState starts a story from its general details.
func NewState(g *General) *State {
	return &State{
		General:    g,
		Characters: []Character{},
		Chapters:   []Chapter{},
	}
}

// Title returns the story title, or "" before general details exist.
func (s *State) Title() string {
	if s == nil || s.General == nil {
		return ""
	}
	return s.General.Title
}

// General is the premise of the story.
type General struct {
	Title    string   `json:"title" yaml:"title" validate:"notblank,excludes=:"`
	Themes   []string `json:"themes" yaml:"themes" validate:"min=1,dive,notblank"`
	Genres   []string `json:"genres" yaml:"genres" validate:"min=1,dive,notblank"`
	Synopsis string   `json:"synopsis" yaml:"synopsis" validate:"notblank"`
}

// Normalize rewrites the title into a path-safe form and splits compound
// theme and genre entries.
func (g *General) Normalize() {
	g.Title = SanitizeTitle(g.Title)
	g.Themes = SplitTags(g.Themes)
	g.Genres = SplitTags(g.Genres)
	g.Synopsis = strings.TrimSpace(g.Synopsis)
}

func (g *General) Validate() error {
	return check("general", g)
}

// SanitizeTitle replaces colons, which are not allowed in directory names.
func SanitizeTitle(title string) string {
	return strings.TrimSpace(strings.ReplaceAll(title, ":", " -"))
}

// SplitTags splits "A | B" entries into separate, trimmed, non-empty tags.
func SplitTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		for _, part := range strings.Split(tag, "|") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Worldbuilding describes the setting. Every field is optional but at least
// one has to be filled in.
type Worldbuilding struct {
	Geography         string `json:"geography,omitempty" yaml:"geography,omitempty"`
	Culture           string `json:"culture,omitempty" yaml:"culture,omitempty"`
	History           string `json:"history,omitempty" yaml:"history,omitempty"`
	Politics          string `json:"politics,omitempty" yaml:"politics,omitempty"`
	Economy           string `json:"economy,omitempty" yaml:"economy,omitempty"`
	MagicTechnology   string `json:"magic_technology,omitempty" yaml:"magic_technology,omitempty"`
	Religion          string `json:"religion,omitempty" yaml:"religion,omitempty"`
	AdditionalDetails string `json:"additional_details,omitempty" yaml:"additional_details,omitempty"`
}

func (w *Worldbuilding) Validate() error {
	for _, f := range w.fields() {
		if strings.TrimSpace(f.value) != "" {
			return nil
		}
	}
	return errors.New("worldbuilding: at least one field must be set")
}

type worldField struct {
	key   string
	value string
}

func (w *Worldbuilding) fields() []worldField {
	return []worldField{
		{"geography", w.Geography},
		{"culture", w.Culture},
		{"history", w.History},
		{"politics", w.Politics},
		{"economy", w.Economy},
		{"magic_technology", w.MagicTechnology},
		{"religion", w.Religion},
		{"additional_details", w.AdditionalDetails},
	}
}

// Character is one entry of the story's roster.
type Character struct {
	Name        string `json:"name" yaml:"name" validate:"notblank"`
	Age         string `json:"age" yaml:"age" validate:"notblank"`
	Role        string `json:"role" yaml:"role" validate:"notblank"`
	Description string `json:"description" yaml:"description" validate:"notblank"`
	Personality string `json:"personality" yaml:"personality" validate:"notblank"`
}

func (c *Character) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
}

func (c *Character) Validate() error {
	return check("character", c)
}

// ValidateRoster checks that character names are unique.
func ValidateRoster(chars []*Character) error {
	seen := make(map[string]struct{}, len(chars))
	for _, c := range chars {
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("characters: duplicate name %q", c.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// CharacterStatus references a roster character from a chapter or scene.
type CharacterStatus struct {
	Name   string `json:"name" yaml:"name" validate:"notblank"`
	Status string `json:"status" yaml:"status" validate:"notblank"`
}

// Chapter is one chapter of the outline. Number is assigned by position.
type Chapter struct {
	Title               string            `json:"title" yaml:"title" validate:"notblank"`
	Number              int               `json:"number" yaml:"number"`
	StoryStructurePoint string            `json:"story_structure_point" yaml:"story_structure_point" validate:"notblank"`
	Location            string            `json:"location" yaml:"location" validate:"notblank"`
	Characters          []CharacterStatus `json:"characters" yaml:"characters" validate:"dive"`
	Synopsis            string            `json:"synopsis" yaml:"synopsis" validate:"notblank"`
	Scenes              []Scene           `json:"scenes" yaml:"scenes" validate:"dive"`
}

func (c *Chapter) Validate() error {
	return check("chapter", c)
}

// ChapterOutline is a chapter as the model returns it. It has no number and
// no scenes; both are filled in later by the pipeline.
type ChapterOutline struct {
	Title               string            `json:"title" validate:"notblank"`
	StoryStructurePoint string            `json:"story_structure_point" validate:"notblank"`
	Location            string            `json:"location" validate:"notblank"`
	Characters          []CharacterStatus `json:"characters" validate:"dive"`
	Synopsis            string            `json:"synopsis" validate:"notblank"`
}

func (c *ChapterOutline) Validate() error {
	return check("chapter", c)
}

// Chapter returns an unnumbered chapter without scenes.
func (c *ChapterOutline) Chapter() Chapter {
	return Chapter{
		Title:               c.Title,
		StoryStructurePoint: c.StoryStructurePoint,
		Location:            c.Location,
		Characters:          c.Characters,
		Synopsis:            c.Synopsis,
	}
}

// Scene is one scene of a chapter. Number is assigned by position.
type Scene struct {
	Summary    string            `json:"summary" yaml:"summary" validate:"notblank"`
	Number     int               `json:"number" yaml:"number"`
	Characters []CharacterStatus `json:"characters" yaml:"characters" validate:"dive"`
	Location   string            `json:"location" yaml:"location" validate:"notblank"`
	Misc       string            `json:"misc,omitempty" yaml:"misc,omitempty"`
	StoryBeats []string          `json:"story_beats" yaml:"story_beats" validate:"dive,notblank"`
}

func (s *Scene) Validate() error {
	return check("scene", s)
}

// NumberChapters assigns 1-based numbers by position.
func NumberChapters(chapters []Chapter) {
	for i := range chapters {
		chapters[i].Number = i + 1
	}
}

// NumberScenes assigns 1-based numbers by position.
func NumberScenes(scenes []Scene) {
	for i := range scenes {
		scenes[i].Number = i + 1
	}
}
