package warden

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	BackupDir    = ".warden_apply_backup"
	IgnoreMarker = "warden:ignore"
)

var sensitivePaths = []string{
	".git/",
	".env",
	".ssh/",
	".aws/",
	".gnupg/",
	"id_rsa",
	"id_ed25519",
	"credentials",
	BackupDir + "/",
}

var lazyMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^\s*//\s*\.{3,}\s*$`),
	regexp.MustCompile(`^\s*/\*\s*\.{3,}\s*\*/\s*$`),
	regexp.MustCompile(`(?i)^\s*//.*(rest of|remaining|existing|implement|logic here).*$`),
	regexp.MustCompile(`^\s*#\s*\.{3,}\s*$`),
	regexp.MustCompile(`^\s*<!--\s*\.{3,}\s*-->\s*$`),
}

var driveLetterRegex = regexp.MustCompile(`^[A-Za-z]:`)

// Validate checks the payload without touching the filesystem. Path safety
// is checked first and on its own so that a security violation is never
// reported as an ordinary missing or malformed file.
func Validate(m Manifest, files ExtractedFiles) Outcome {
	if errs := checkPathSafety(m, files); len(errs) > 0 {
		return ValidationFailure{
			Errors:    errs,
			AIMessage: FormatAIRejection(nil, errs),
		}
	}

	missing := checkMissing(m, files)
	contentErrs := checkContent(files)
	if len(missing) > 0 || len(contentErrs) > 0 {
		return ValidationFailure{
			Errors:    contentErrs,
			Missing:   missing,
			AIMessage: FormatAIRejection(missing, contentErrs),
		}
	}

	var deleted []string
	for _, e := range m {
		if e.Op == OpDelete {
			deleted = append(deleted, e.Path)
		}
	}
	return Success{
		Written:  sortedPaths(files),
		Deleted:  deleted,
		BackedUp: true,
	}
}

func checkPathSafety(m Manifest, files ExtractedFiles) []string {
	seen := make(map[string]struct{}, len(files)+len(m))
	for p := range files {
		seen[p] = struct{}{}
	}
	for _, e := range m {
		seen[e.Path] = struct{}{}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var errs []string
	for _, p := range paths {
		if err := checkPath(p); err != "" {
			errs = append(errs, err)
		}
	}
	return errs
}

// checkPath returns the first security violation for path, or "".
func checkPath(path string) string {
	switch {
	case hasTraversal(path):
		return fmt.Sprintf("SECURITY: path contains directory traversal: %s", path)
	case isAbsolute(path):
		return fmt.Sprintf("SECURITY: absolute path not allowed: %s", path)
	case isSensitive(path):
		return fmt.Sprintf("SECURITY: sensitive path blocked: %s", path)
	case isHidden(path):
		return fmt.Sprintf("SECURITY: hidden file not allowed: %s", path)
	}
	return ""
}

func pathSegments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
}

func hasTraversal(path string) bool {
	if strings.HasPrefix(path, "..") {
		return true
	}
	for _, seg := range pathSegments(path) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) || driveLetterRegex.MatchString(path)
}

func isSensitive(path string) bool {
	lower := strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
	for _, s := range sensitivePaths {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func isHidden(path string) bool {
	for _, seg := range pathSegments(path) {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

func checkMissing(m Manifest, files ExtractedFiles) []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, e := range m {
		if e.Op == OpDelete {
			continue
		}
		if _, ok := files[e.Path]; ok {
			continue
		}
		if _, dup := seen[e.Path]; dup {
			continue
		}
		seen[e.Path] = struct{}{}
		missing = append(missing, e.Path)
	}
	return missing
}

func checkContent(files ExtractedFiles) []string {
	var errs []string
	for _, path := range sortedPaths(files) {
		errs = append(errs, checkFileContent(path, files[path].Content)...)
	}
	return errs
}

func checkFileContent(path, content string) []string {
	if strings.TrimSpace(content) == "" {
		return []string{fmt.Sprintf("%s is empty", path)}
	}

	var errs []string
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.Contains(line, IgnoreMarker) {
			continue
		}
		for _, re := range lazyMarkers {
			if re.MatchString(line) {
				errs = append(errs, fmt.Sprintf(
					"%s:%d: Detected lazy truncation marker: '%s'. Full file required.",
					path, i+1, strings.TrimSpace(line)))
				break
			}
		}
	}
	return errs
}

func sortedPaths(files ExtractedFiles) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
