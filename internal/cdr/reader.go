package cdr

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ReadFile reads a JSON-lines CDR file. Blank, malformed and incomplete
// lines are skipped and logged; only an unreadable file fails the read.
func ReadFile(path string, log *slog.Logger) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cdr file: %w", err)
	}
	defer file.Close()

	var records []Record

	scanner := bufio.NewScanner(file)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			log.Warn("skipping blank line", "file", path, "line", lineNo)
			continue
		}

		var record Record
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			log.Error("skipping malformed line", "file", path, "line", lineNo, "error", err)
			continue
		}

		if err := record.Validate(); err != nil {
			log.Error("skipping incomplete record", "file", path, "line", lineNo, "error", err)
			continue
		}

		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cdr file: %w", err)
	}

	log.Info("cdr file read", "file", path, "records", len(records))
	return records, nil
}
