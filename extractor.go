package warden

import (
	"regexp"
	"strings"
)

const (
	PlanOpen     = "#__WARDEN_PLAN__#"
	ManifestOpen = "#__WARDEN_MANIFEST__#"
	FileOpen     = "#__WARDEN_FILE__#"
	BlockClose   = "#__WARDEN_END__#"
)

// Markers must sit alone on their line. Trailing blanks are tolerated but
// never newlines, so a match cannot swallow the following lines.
var (
	planOpenRegex   = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(PlanOpen) + `[ \t\r]*$`)
	fileHeaderRegex = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(FileOpen) + `[ \t]*(.+?)[ \t\r]*$`)
	blockCloseRegex = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(BlockClose) + `[ \t\r]*$`)
	skeletonTag     = regexp.MustCompile(`[ \t]+\[SKELETON\]$`)
)

var reservedBlocks = map[string]struct{}{
	"MANIFEST": {},
	"PLAN":     {},
}

func ExtractPlan(text string) (string, bool) {
	open := planOpenRegex.FindStringIndex(text)
	if open == nil {
		return "", false
	}
	end := findClose(text, open[1])
	if end == nil {
		return "", false
	}
	return trimNewlines(text[open[1]:end[0]]), true
}

func ExtractFiles(text string) ExtractedFiles {
	files := make(ExtractedFiles)
	cursor := 0

	for cursor < len(text) {
		header := fileHeaderRegex.FindStringSubmatchIndex(text[cursor:])
		if header == nil {
			break
		}
		headerEnd := cursor + header[1]
		path := headerPath(text[cursor+header[2] : cursor+header[3]])

		footer := findClose(text, headerEnd)
		if footer == nil {
			// Truncated block: drop it and look for the next header.
			cursor = headerEnd
			continue
		}
		cursor = footer[1]

		if _, ok := reservedBlocks[path]; ok || path == "" {
			continue
		}

		body := trimNewlines(text[headerEnd:footer[0]])
		files[path] = FileContent{Content: body, LineCount: countLines(body)}
	}
	return files
}

func findClose(text string, from int) []int {
	loc := blockCloseRegex.FindStringIndex(text[from:])
	if loc == nil {
		return nil
	}
	return []int{from + loc[0], from + loc[1]}
}

func headerPath(raw string) string {
	return strings.TrimSpace(skeletonTag.ReplaceAllString(strings.TrimSpace(raw), ""))
}

func trimNewlines(s string) string {
	s = strings.TrimLeft(s, "\r\n")
	return strings.TrimRight(s, "\r\n")
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
