package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vampirenirmal/outliner/internal/domain/story"
)

// Format is the on-disk encoding of story snapshots.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

func (f Format) Marshal(v any) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(v, "", "  ")
	case FormatYAML:
		return yaml.Marshal(v)
	}
	return nil, fmt.Errorf("unsupported output format %q", f)
}

func (f Format) Unmarshal(data []byte, v any) error {
	switch f {
	case FormatJSON:
		return json.Unmarshal(data, v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	}
	return fmt.Errorf("unsupported output format %q", f)
}

const consolidatedName = "story_data"

// SnapshotStore persists story state either as one consolidated file or
// split into one file per record.
type SnapshotStore struct {
	store       Storage
	format      Format
	consolidate bool
	logger      *slog.Logger
}

func NewSnapshotStore(store Storage, format Format, consolidate bool) *SnapshotStore {
	return &SnapshotStore{
		store:       store,
		format:      format,
		consolidate: consolidate,
		logger:      slog.Default().With("component", "snapshot_store"),
	}
}

func (s *SnapshotStore) file(dir, name string, f Format) string {
	return path.Join(dir, name+"."+string(f))
}

// Save writes the full state below dir.
func (s *SnapshotStore) Save(ctx context.Context, dir string, st *story.State) error {
	if st == nil || st.General == nil {
		return errors.New("saving snapshot: state has no general details")
	}

	if s.consolidate {
		return s.write(ctx, s.file(dir, consolidatedName, s.format), st)
	}

	if err := s.write(ctx, s.file(dir, "general", s.format), st.General); err != nil {
		return err
	}
	if st.Structure != nil {
		if err := s.write(ctx, s.file(dir, "structure", s.format), st.Structure); err != nil {
			return err
		}
	}
	if st.Worldbuilding != nil {
		if err := s.write(ctx, s.file(dir, "worldbuilding", s.format), st.Worldbuilding); err != nil {
			return err
		}
	}
	for i := range st.Characters {
		c := &st.Characters[i]
		name := path.Join("characters", fmt.Sprintf("character-%d-%s", i+1, sanitizeForFilename(c.Name, 80)))
		if err := s.write(ctx, s.file(dir, name, s.format), c); err != nil {
			return err
		}
	}
	for i := range st.Chapters {
		ch := st.Chapters[i]
		chDir := path.Join(dir, "chapters", fmt.Sprintf("Chapter-%d", ch.Number))
		scenes := ch.Scenes
		ch.Scenes = nil
		if err := s.write(ctx, s.file(chDir, fmt.Sprintf("chapter-%d", ch.Number), s.format), &ch); err != nil {
			return err
		}
		for j := range scenes {
			sc := &scenes[j]
			if err := s.write(ctx, s.file(chDir, fmt.Sprintf("scene-%d", sc.Number), s.format), sc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SnapshotStore) write(ctx context.Context, p string, v any) error {
	data, err := s.format.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", p, err)
	}
	if err := s.store.Save(ctx, p, data); err != nil {
		return fmt.Errorf("saving %s: %w", p, err)
	}
	return nil
}

// Load reads a snapshot below dir. The layout and format are detected, so
// a story written with other output settings still loads.
func (s *SnapshotStore) Load(ctx context.Context, dir string) (*story.State, error) {
	for _, f := range s.formats() {
		p := s.file(dir, consolidatedName, f)
		if !s.store.Exists(ctx, p) {
			continue
		}
		var st story.State
		if err := s.read(ctx, p, f, &st); err != nil {
			return nil, err
		}
		if st.General == nil {
			return nil, fmt.Errorf("loading %s: no general details", p)
		}
		return &st, nil
	}

	for _, f := range s.formats() {
		if s.store.Exists(ctx, s.file(dir, "general", f)) {
			return s.loadSplit(ctx, dir, f)
		}
	}

	return nil, fmt.Errorf("no story snapshot in %s: %w", dir, ErrNotFound)
}

// formats lists the configured format first.
func (s *SnapshotStore) formats() []Format {
	if s.format == FormatYAML {
		return []Format{FormatYAML, FormatJSON}
	}
	return []Format{FormatJSON, FormatYAML}
}

func (s *SnapshotStore) read(ctx context.Context, p string, f Format, v any) error {
	data, err := s.store.Load(ctx, p)
	if err != nil {
		return err
	}
	if err := f.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", p, err)
	}
	return nil
}

func (s *SnapshotStore) loadSplit(ctx context.Context, dir string, f Format) (*story.State, error) {
	var general story.General
	if err := s.read(ctx, s.file(dir, "general", f), f, &general); err != nil {
		return nil, err
	}
	st := story.NewState(&general)

	if p := s.file(dir, "structure", f); s.store.Exists(ctx, p) {
		st.Structure = &story.Structure{}
		if err := s.read(ctx, p, f, st.Structure); err != nil {
			return nil, err
		}
	}
	if p := s.file(dir, "worldbuilding", f); s.store.Exists(ctx, p) {
		st.Worldbuilding = &story.Worldbuilding{}
		if err := s.read(ctx, p, f, st.Worldbuilding); err != nil {
			return nil, err
		}
	}

	files, err := s.store.List(ctx, path.Join(dir, "characters", "character-*."+string(f)))
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	sortByNumber(files, "character-")
	for _, p := range files {
		var c story.Character
		if err := s.read(ctx, p, f, &c); err != nil {
			return nil, err
		}
		st.Characters = append(st.Characters, c)
	}

	chapterFiles, err := s.store.List(ctx, path.Join(dir, "chapters", "Chapter-*", "chapter-*."+string(f)))
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	sortByNumber(chapterFiles, "chapter-")
	for _, p := range chapterFiles {
		var ch story.Chapter
		if err := s.read(ctx, p, f, &ch); err != nil {
			return nil, err
		}

		sceneFiles, err := s.store.List(ctx, path.Join(path.Dir(p), "scene-*."+string(f)))
		if err != nil {
			return nil, fmt.Errorf("listing scenes: %w", err)
		}
		sortByNumber(sceneFiles, "scene-")
		ch.Scenes = nil
		for _, sp := range sceneFiles {
			var sc story.Scene
			if err := s.read(ctx, sp, f, &sc); err != nil {
				return nil, err
			}
			ch.Scenes = append(ch.Scenes, sc)
		}
		st.Chapters = append(st.Chapters, ch)
	}

	s.logger.Debug("loaded split snapshot",
		"dir", dir,
		"format", f,
		"characters", len(st.Characters),
		"chapters", len(st.Chapters))

	return st, nil
}

// sortByNumber orders "<prefix>N.<ext>" and "<prefix>N-<name>.<ext>" paths
// by N.
func sortByNumber(paths []string, prefix string) {
	num := func(p string) int {
		rest := strings.TrimPrefix(path.Base(p), prefix)
		end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
		if end < 0 {
			end = len(rest)
		}
		n, _ := strconv.Atoi(rest[:end])
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}
