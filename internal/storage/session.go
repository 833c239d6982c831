package storage

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// StoryDirName names a story output directory "<unix ms> - <title>".
func StoryDirName(title string, now time.Time) string {
	return fmt.Sprintf("%d - %s", now.UnixMilli(), sanitizeForFilename(title, 120))
}

var filenameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"[", "(",
	"]", ")",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// sanitizeForFilename keeps the title readable but safe as one path element
func sanitizeForFilename(s string, maxLen int) string {
	s = filenameReplacer.Replace(s)

	// Collapse whitespace runs left by replacements
	s = strings.Join(strings.Fields(s), " ")

	// Leading or trailing dots would make "." and ".." possible
	s = strings.Trim(s, ". ")

	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimRight(s[:cut], ". ")
	}

	if s == "" {
		s = "untitled"
	}

	return s
}
