// Package history persists the tracked record set between runs.
//
// The history file is JSONL, one record per line, keyed by the record's
// full name. It is loaded wholesale at run start and replaced wholesale,
// atomically, at run end. There is no cross-run locking; concurrent runs
// against the same file race and the later writer wins.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/modelshop/weightwatch/internal/track"
)

// MaxLineCapacity is the maximum buffer size for reading JSONL lines.
const MaxLineCapacity = 1024 * 1024

// Load reads the full history into a map keyed by full name. A missing
// file is an empty history, not an error. Records with unknown status
// values or duplicate identities are rejected.
func Load(path string) (map[string]*track.Record, error) {
	records := make(map[string]*track.Record)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxLineCapacity)
	scanner.Buffer(buf, MaxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec track.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing history line %d: %w", lineNum, err)
		}
		if err := track.ValidateFullName(rec.FullName); err != nil {
			return nil, fmt.Errorf("history line %d: %w", lineNum, err)
		}
		if _, dup := records[rec.FullName]; dup {
			return nil, fmt.Errorf("history line %d: duplicate record for %s", lineNum, rec.FullName)
		}
		records[rec.FullName] = &rec
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return records, nil
}

// Save writes the full history atomically via temp file + rename, sorted
// by full name so the file diffs cleanly under version control.
func Save(path string, records map[string]*track.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-history-*.jsonl")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := json.Marshal(records[name])
		if err != nil {
			tmpFile.Close()
			return fmt.Errorf("encoding record %s: %w", name, err)
		}
		if _, err := tmpFile.Write(append(data, '\n')); err != nil {
			tmpFile.Close()
			return fmt.Errorf("writing record %s: %w", name, err)
		}
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
