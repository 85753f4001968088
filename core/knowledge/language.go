package knowledge

import (
	"path/filepath"
	"strings"
)

// extensionLanguages maps file extensions to language identifiers.
var extensionLanguages = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".jsx":   "jsx",
	".tsx":   "tsx",
	".java":  "java",
	".cpp":   "cpp",
	".c":     "c",
	".go":    "go",
	".rs":    "rust",
	".php":   "php",
	".rb":    "ruby",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".xml":   "xml",
	".html":  "html",
	".css":   "css",
	".sql":   "sql",
	".sh":    "bash",
	".md":    "markdown",
	".rst":   "rst",
	".txt":   "text",
}

// programmingLanguages is the set of languages treated as code for
// template content affinity.
var programmingLanguages = map[string]struct{}{
	"python": {}, "javascript": {}, "typescript": {}, "jsx": {}, "tsx": {},
	"java": {}, "cpp": {}, "c": {}, "go": {}, "rust": {}, "php": {},
	"ruby": {}, "swift": {}, "kotlin": {}, "scala": {}, "sql": {}, "bash": {},
}

// DetectLanguage maps a file path to a language identifier, or "" when the
// extension is unknown.
func DetectLanguage(path string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(path))]
}

// IsProgrammingLanguage reports whether lang is a recognized programming
// language (as opposed to markup, config, or prose).
func IsProgrammingLanguage(lang string) bool {
	_, ok := programmingLanguages[strings.ToLower(lang)]
	return ok
}

// ContentType classifies a language for template affinity matching.
func ContentType(lang string) string {
	if IsProgrammingLanguage(lang) {
		return "code"
	}
	return "text"
}
