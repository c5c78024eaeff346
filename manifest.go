package warden

import (
	"regexp"
	"strings"
)

var (
	manifestOpenRegex  = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(ManifestOpen) + `[ \t\r]*$`)
	deliveryOpenRegex  = regexp.MustCompile(`(?i)<delivery>`)
	deliveryCloseRegex = regexp.MustCompile(`(?i)</delivery>`)

	// "- a.go", "* a.go", "1. a.go". The trailing space is mandatory so
	// that ".gitignore" or "1.go" are not mistaken for list markers.
	listMarkerRegex = regexp.MustCompile(`^\s*(?:[-*]|\d+\.)\s+`)
	newTagRegex     = regexp.MustCompile(`(?i)\[new\]`)
	deleteTagRegex  = regexp.MustCompile(`(?i)\[delete\]`)
)

// ParseManifest returns the declared operations and whether a manifest
// block was present at all.
func ParseManifest(text string) (Manifest, bool) {
	block, ok := manifestBlock(text)
	if !ok {
		return nil, false
	}

	entries := Manifest{}
	for _, line := range strings.Split(block, "\n") {
		if entry, ok := parseManifestLine(line); ok {
			entries = append(entries, entry)
		}
	}
	return entries, true
}

func manifestBlock(text string) (string, bool) {
	if open := manifestOpenRegex.FindStringIndex(text); open != nil {
		if end := findClose(text, open[1]); end != nil {
			return text[open[1]:end[0]], true
		}
	}

	open := deliveryOpenRegex.FindStringIndex(text)
	if open == nil {
		return "", false
	}
	end := deliveryCloseRegex.FindStringIndex(text[open[1]:])
	if end == nil {
		return "", false
	}
	return text[open[1] : open[1]+end[0]], true
}

func parseManifestLine(line string) (ManifestEntry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ManifestEntry{}, false
	}
	clean := strings.TrimSpace(listMarkerRegex.ReplaceAllString(trimmed, ""))

	op := OpUpdate
	switch {
	case newTagRegex.MatchString(clean):
		op = OpNew
		clean = newTagRegex.ReplaceAllString(clean, "")
	case deleteTagRegex.MatchString(clean):
		op = OpDelete
		clean = deleteTagRegex.ReplaceAllString(clean, "")
	}

	// "src/main.go - entry point" declares src/main.go.
	fields := strings.Fields(clean)
	if len(fields) == 0 {
		return ManifestEntry{}, false
	}
	return ManifestEntry{Path: fields[0], Op: op}, true
}

// Paths returns the manifest paths in declaration order.
func (m Manifest) Paths() []string {
	paths := make([]string, 0, len(m))
	for _, e := range m {
		paths = append(paths, e.Path)
	}
	return paths
}
