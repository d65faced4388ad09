package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// Scoring label constants.
const (
	ExcellentValue = "Excellent" // Excellent value
	GoodValue      = "Good"      // Good value
	FairValue      = "Fair"      // Fair value
	PoorValue      = "Poor"      // Poor value
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // ExcellentColor represents a healthy codebase.
	GoodColor      = color.New(color.FgCyan)              // GoodColor represents minor findings.
	FairColor      = color.New(color.FgYellow)            // FairColor represents standard caution, not bold.
	PoorColor      = color.New(color.FgRed, color.Bold)   // PoorColor represents standard danger.
)

// Severity colors for console output.
var (
	ErrorColor   = color.New(color.FgRed)
	WarningColor = color.New(color.FgYellow)
	InfoColor    = color.New(color.FgCyan)
)

// GetPlainLabel returns a plain text label for a score where higher is better.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	return schema.GetPlainLabel(score)
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case ExcellentValue:
		return ExcellentColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	default: // "Poor"
		return PoorColor.Sprint(text)
	}
}

// GetColorSeverity returns a colored severity for console output.
func GetColorSeverity(sev schema.Severity) string {
	switch sev {
	case schema.SeverityError:
		return ErrorColor.Sprint(string(sev))
	case schema.SeverityWarning:
		return WarningColor.Sprint(string(sev))
	default:
		return InfoColor.Sprint(string(sev))
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given slash-separated path matches any of the exclude patterns.
// Patterns ending with "/**" or '/' are treated as directory prefixes and patterns starting
// with "**/" match at any depth. Other glob patterns use filepath.Match against the full
// path and the base name. Patterns starting with '.' are treated as suffix (extension) matches.
// A user can provide patterns like "vendor/", "tests/**", "**/migrations/*.py", "*_pb2.py".
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		if dir, ok := strings.CutSuffix(ex, "/**"); ok && !strings.ContainsAny(dir, "*?[") {
			if path == dir || strings.HasPrefix(path, dir+"/") {
				return true
			}
			continue
		}

		if rest, ok := strings.CutPrefix(ex, "**/"); ok {
			if matchAnyDepth(rest, path) {
				return true
			}
			continue
		}

		// If the pattern contains glob characters, try filepath.Match.
		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			// Also try matching against the base filename (e.g. *.min.js)
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		// Handle prefix, suffix, or substring matches
		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) || strings.Contains(path, "/"+ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// matchAnyDepth matches pattern against every suffix of path that starts at a segment boundary.
func matchAnyDepth(pattern, path string) bool {
	candidate := path
	for {
		if ok, err := filepath.Match(pattern, candidate); err == nil && ok {
			return true
		}
		idx := strings.Index(candidate, "/")
		if idx < 0 {
			return false
		}
		candidate = candidate[idx+1:]
	}
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the repository and job store.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".code_analyzer.db"
	}
	return filepath.Join(homeDir, ".code_analyzer.db")
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the result cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".code_analyzer_cache.db"
	}
	return filepath.Join(homeDir, ".code_analyzer_cache.db")
}

// GetWorkspaceDir returns the default base directory for per-job scratch space.
func GetWorkspaceDir() string {
	return filepath.Join(os.TempDir(), "code_analyzer")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
