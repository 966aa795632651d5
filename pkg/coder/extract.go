package coder

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	pythonFencePattern = regexp.MustCompile("(?is)```python\\s*\\n(.*?)\\n```")
	bareFencePattern   = regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n```")
)

// ExtractCodeFromMarkdown pulls Python code out of a fenced code block.
// Falls back to an untagged block when it looks like Python, and to the raw
// text when no fences are present.
func ExtractCodeFromMarkdown(text string) string {
	if m := pythonFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareFencePattern.FindStringSubmatch(text); m != nil {
		code := strings.TrimSpace(m[1])
		if looksLikePython(code) {
			return code
		}
	}
	return strings.TrimSpace(text)
}

var pythonKeywords = []string{
	"import ", "from ", "def ", "class ",
	"if ", "for ", "while ", "try:", "except:",
	"pd.", "np.", "print(",
}

func looksLikePython(code string) bool {
	for _, kw := range pythonKeywords {
		if strings.Contains(code, kw) {
			return true
		}
	}
	return false
}

// ReplacePaths substitutes the csv_files[i] and output_path placeholders the
// generated code uses with literal absolute paths, making the script
// standalone.
func ReplacePaths(code string, csvPaths []string, outputPath string) string {
	for i, p := range csvPaths {
		code = strings.ReplaceAll(code, fmt.Sprintf("csv_files[%d]", i), fmt.Sprintf("%q", p))
	}
	return strings.ReplaceAll(code, "output_path", fmt.Sprintf("%q", outputPath))
}
