package processor

import (
	"os"
)

// CreationTimestamp reads the file's modification time as the capture time,
// formatted with SourceDateLayout in local time. Linux exposes no portable
// birth time, and screenshots are not rewritten after capture.
func CreationTimestamp(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	return info.ModTime().Local().Format(SourceDateLayout), true
}
