package ingest

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ParseHandles splits a comma separated handle list, trimming whitespace
// and a leading @ from each entry. Empty entries are dropped.
func ParseHandles(s string) []string {
	var handles []string
	for _, part := range strings.Split(s, ",") {
		if h := cleanHandle(part); h != "" {
			handles = append(handles, h)
		}
	}
	return handles
}

// ReadHandlesFile reads one handle per line. Blank lines and lines
// starting with # are ignored.
func ReadHandlesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open handles file: %w", err)
	}
	defer f.Close()

	var handles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if h := cleanHandle(line); h != "" {
			handles = append(handles, h)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read handles file: %w", err)
	}
	return handles, nil
}

func cleanHandle(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}
