package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// BeatNotFound is returned by BeatText when a chapter references a beat the
// active structure does not define.
const BeatNotFound = "Chapter outline structure point not found in generated outline structure."

// ErrUnknownStyle is returned when a structure style cannot be resolved.
var ErrUnknownStyle = errors.New("unknown story structure style")

// Style names one of the supported story structure skeletons.
type Style string

const (
	StyleClassic         Style = "Classic Story Structure"
	StyleThreeAct        Style = "Three Act Structure"
	StyleFiveAct         Style = "Five Act Structure"
	StyleSevenPoint      Style = "Seven Point Story Structure"
	StyleFreytagsPyramid Style = "Freytag's Pyramid"
	StyleHerosJourney    Style = "The Hero's Journey"
	StyleStoryCircle     Style = "Dan Harmon's Story Circle"
	StyleStorySpine      Style = "Story Spine"
	StyleFichteanCurve   Style = "Fichtean Curve"
	StyleInMediasRes     Style = "In Medias Res"
	StyleSaveTheCat      Style = "Save the Cat"
)

// Beat is one named narrative point of a structure.
type Beat struct {
	Key  string
	Text string
}

// BeatDef describes a beat for prompts and schemas.
type BeatDef struct {
	Key         string
	Description string
}

// Variant is implemented by every structure skeleton.
type Variant interface {
	Style() Style
	Beats() []Beat
	Validate() error
}

type styleDef struct {
	style       Style
	key         string
	description string
	beats       []BeatDef
	new         func() Variant
}

// Styles returns every supported style in a stable order.
func Styles() []Style {
	out := make([]Style, len(registry))
	for i, def := range registry {
		out[i] = def.style
	}
	return out
}

// ParseStyle resolves a style leniently: case, spaces, apostrophes and
// underscores are ignored, and both display names and short keys match.
func ParseStyle(s string) (Style, error) {
	want := foldStyle(s)
	if want == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownStyle)
	}
	for _, def := range registry {
		if foldStyle(string(def.style)) == want || foldStyle(def.key) == want {
			return def.style, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
}

func foldStyle(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "'", "", "’", "", "_", "", "-", "").Replace(s)
}

func lookup(style Style) (styleDef, bool) {
	for _, def := range registry {
		if def.style == style {
			return def, true
		}
	}
	return styleDef{}, false
}

// Key is the short snake_case identifier of the style.
func (s Style) Key() string {
	def, ok := lookup(s)
	if !ok {
		return ""
	}
	return def.key
}

// Description summarizes what the style is suited for.
func (s Style) Description() string {
	def, _ := lookup(s)
	return def.description
}

// BeatDefs lists the beats of the style in narrative order.
func (s Style) BeatDefs() []BeatDef {
	def, _ := lookup(s)
	return def.beats
}

// NewVariant returns an empty variant for the style.
func NewVariant(style Style) (Variant, error) {
	def, ok := lookup(style)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	return def.new(), nil
}

// Structure is the active outline skeleton of a story.
type Structure struct {
	Style   Style
	Variant Variant
}

// NewStructure wraps a generated variant.
func NewStructure(v Variant) *Structure {
	return &Structure{Style: v.Style(), Variant: v}
}

// Validate checks that the variant matches the style and every beat is set.
func (s *Structure) Validate() error {
	if s == nil || s.Variant == nil {
		return errors.New("structure: no variant")
	}
	if s.Variant.Style() != s.Style {
		return fmt.Errorf("structure: style %q does not match variant %q", s.Style, s.Variant.Style())
	}
	return s.Variant.Validate()
}

// BeatText returns the text of the beat a chapter refers to. The reference
// is lower-cased and spaces become underscores before matching.
func (s *Structure) BeatText(point string) string {
	if s == nil || s.Variant == nil {
		return BeatNotFound
	}
	key := NormalizeBeatKey(point)
	for _, b := range s.Variant.Beats() {
		if b.Key == key {
			return b.Text
		}
	}
	return BeatNotFound
}

// HasBeat reports whether point resolves to a beat of the structure.
func (s *Structure) HasBeat(point string) bool {
	return s.BeatText(point) != BeatNotFound
}

// NormalizeBeatKey maps a free-text beat label to a beat key.
func NormalizeBeatKey(point string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(point)), " ", "_")
}

func (s Structure) MarshalJSON() ([]byte, error) {
	if s.Variant == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteString(`{"style":`)
	style, err := json.Marshal(string(s.Style))
	if err != nil {
		return nil, err
	}
	buf.Write(style)
	for _, b := range s.Variant.Beats() {
		key, _ := json.Marshal(b.Key)
		text, err := json.Marshal(b.Text)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(text)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Structure) UnmarshalJSON(data []byte) error {
	var head struct {
		Style string `json:"style"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decoding structure: %w", err)
	}
	style, err := ParseStyle(head.Style)
	if err != nil {
		return err
	}
	v, err := NewVariant(style)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", style, err)
	}
	s.Style = style
	s.Variant = v
	return nil
}

func (s Structure) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	node.Content = append(node.Content, scalar("style"), scalar(string(s.Style)))
	if s.Variant != nil {
		for _, b := range s.Variant.Beats() {
			node.Content = append(node.Content, scalar(b.Key), scalar(b.Text))
		}
	}
	return node, nil
}

func (s *Structure) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Style string `yaml:"style"`
	}
	if err := value.Decode(&head); err != nil {
		return fmt.Errorf("decoding structure: %w", err)
	}
	style, err := ParseStyle(head.Style)
	if err != nil {
		return err
	}
	v, err := NewVariant(style)
	if err != nil {
		return err
	}
	if err := value.Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", style, err)
	}
	s.Style = style
	s.Variant = v
	return nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
