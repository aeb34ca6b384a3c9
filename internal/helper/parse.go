package helper

import (
	"bufio"
	"strings"

	"github.com/breeze-rmm/uninstallscan/internal/logging"
)

// Record is one helper-reported item: the key/value lines of a single
// output block. Keys are whatever the helper printed.
type Record map[string]string

// Get returns the value for key, or "" when absent.
func (r Record) Get(key string) string {
	return r[key]
}

// ParseRecords splits helper output into records.
//
// Output format:
//
//	CanonicalName: beat-saber
//	InstallLocation: C:\Oculus\Software\beat-saber
//	Version: 1.29.1
//
//	CanonicalName: oculus-home
//	IsCore: True
//
// Blocks are separated by one or more blank lines. Each line is split at its
// first ':' and both sides are trimmed, so values may contain ':' (drive
// letters). Lines with no ':' or an empty key are skipped, the first
// occurrence of a repeated key wins, and blocks without any valid line are
// dropped. Records are returned in output order.
func ParseRecords(output string) []Record {
	var records []Record
	current := Record{}

	flush := func() {
		if len(current) > 0 {
			records = append(records, current)
			current = Record{}
		}
	}

	output = normalizeNewlines(output)
	scanner := bufio.NewScanner(strings.NewReader(output))
	// No line can be longer than the whole output.
	scanner.Buffer(make([]byte, 0, 64*1024), len(output)+1)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		key, value, ok := splitField(line)
		if !ok {
			continue
		}
		if _, seen := current[key]; !seen {
			current[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn("helper output parsing stopped early", "records", len(records), logging.KeyError, err)
		// The block being read may be incomplete.
		current = Record{}
	}
	flush()

	return records
}

func splitField(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
