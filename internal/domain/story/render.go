package story

import (
	"fmt"
	"strings"
)

// KeyValues renders the premise as prompt seed text.
func (g *General) KeyValues() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", g.Title)
	fmt.Fprintf(&b, "Themes: %s\n", strings.Join(g.Themes, ", "))
	fmt.Fprintf(&b, "Genre: %s\n", strings.Join(g.Genres, ", "))
	fmt.Fprintf(&b, "Synopsis: %s\n", g.Synopsis)
	return b.String()
}

// KeyValues renders one "beat: text" line per beat, in narrative order.
func (s *Structure) KeyValues() string {
	if s == nil || s.Variant == nil {
		return ""
	}
	var b strings.Builder
	for _, beat := range s.Variant.Beats() {
		fmt.Fprintf(&b, "%s: %s\n", beat.Key, beat.Text)
	}
	return b.String()
}

// KeyValues renders the populated worldbuilding fields.
func (w *Worldbuilding) KeyValues() string {
	var b strings.Builder
	for _, f := range w.fields() {
		if f.value != "" {
			fmt.Fprintf(&b, "%s: %s\n", f.key, f.value)
		}
	}
	return b.String()
}

// KeyValues renders the character on one line.
func (c *Character) KeyValues() string {
	return fmt.Sprintf("name: %s, age: %s, role: %s, description: %s, personality: %s\n",
		c.Name, c.Age, c.Role, c.Description, c.Personality)
}

// Roster renders every character, one per line.
func Roster(chars []Character) string {
	var b strings.Builder
	for i := range chars {
		b.WriteString(chars[i].KeyValues())
	}
	return b.String()
}

// CharacterStatuses renders "name: status" pairs separated by commas.
func CharacterStatuses(cs []CharacterStatus) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.Name + ": " + c.Status
	}
	return strings.Join(parts, ", ")
}
