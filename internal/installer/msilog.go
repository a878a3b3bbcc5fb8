package installer

import (
	"os"
	"regexp"
	"strings"
)

const (
	logTailLines = 120
	maxLogHints  = 5
)

var (
	msiErrorLine  = regexp.MustCompile(`Error \d+`)
	failurePhrase = regexp.MustCompile(`(?i)(failed|failure|cannot|could not)`)
)

// tailErrors pulls diagnostic-looking lines from the last stretch of a
// verbose MSI log. Missing or unreadable logs yield nothing; the exit
// code alone still reaches the caller.
func tailErrors(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	// msiexec sometimes writes UTF-16 logs.
	raw := string(data)
	if strings.Contains(raw, "\x00") {
		raw = strings.ReplaceAll(raw, "\x00", "")
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if len(lines) > logTailLines {
		lines = lines[len(lines)-logTailLines:]
	}

	var hints []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !msiErrorLine.MatchString(line) && !failurePhrase.MatchString(line) {
			continue
		}
		hints = append(hints, line)
		if len(hints) == maxLogHints {
			break
		}
	}
	return hints
}
