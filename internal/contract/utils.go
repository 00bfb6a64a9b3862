package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/riskboard/schema"
)

// Color variables for console output.
var (
	MaliciousColor  = color.New(color.FgRed, color.Bold) // MaliciousColor represents standard danger.
	SuspiciousColor = color.New(color.FgYellow)          // SuspiciousColor represents caution, not bold.
	SafeColor       = color.New(color.FgCyan)            // SafeColor represents a low-priority signal.
	HeaderColor     = color.New(color.FgWhite, color.Bold)
)

// GetPlainLabel returns the risk category label for a mean risk value.
// Values outside [0, 1] have no category and return an empty string.
func GetPlainLabel(risk float64) string {
	switch {
	case risk < 0 || risk > 1 || risk != risk:
		return ""
	case risk <= schema.SafeCeiling:
		return string(schema.SafeCategory)
	case risk < schema.MaliciousFloor:
		return string(schema.SuspiciousCategory)
	default:
		return string(schema.MaliciousCategory)
	}
}

// GetColorLabel returns a colored category label for console output.
func GetColorLabel(risk float64) string {
	return ColorizeCategory(GetPlainLabel(risk))
}

// ColorizeCategory applies the category color to a label.
func ColorizeCategory(label string) string {
	switch schema.RiskCategory(label) {
	case schema.MaliciousCategory:
		return MaliciousColor.Sprint(label)
	case schema.SuspiciousCategory:
		return SuspiciousColor.Sprint(label)
	case schema.SafeCategory:
		return SafeColor.Sprint(label)
	default:
		return label
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(filePath)
}

// ArtifactPath returns the path of a dataset artifact inside the output directory.
func ArtifactPath(outputDir string, name schema.DatasetName, ext string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s.%s", name, ext))
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetExportDBFilePath returns the path to the SQLite DB file used by the SQL export.
func GetExportDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".riskboard_export.db"
	}
	return filepath.Join(homeDir, ".riskboard_export.db")
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is space for the ellipsis and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
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
