package outwriter

import (
	"os"

	"golang.org/x/term"
)

// getMaxLabelWidth calculates the maximum width for group labels in table output
// based on terminal width and the fixed heatmap columns.
func getMaxLabelWidth(widthOverride int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if widthOverride > 0 {
		termWidth = widthOverride
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Mean Risk + Category + Samples with borders/padding
	baseWidth := 50

	available := termWidth - baseWidth
	if available < 10 {
		return 10
	}
	if available > 40 {
		return 40
	}
	return available
}
