package queue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxLineCapacity is the maximum buffer size for reading JSONL lines.
const maxLineCapacity = 1024 * 1024

// Load reads the queue file. A missing file is an empty queue.
func Load(path string) (*Queue, error) {
	q := New()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return q, nil
		}
		return nil, fmt.Errorf("opening queue: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	buf := make([]byte, maxLineCapacity)
	scanner.Buffer(buf, maxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c Candidate
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("parsing queue line %d: %w", lineNum, err)
		}
		if _, dup := q.entries[c.FullName]; dup {
			return nil, fmt.Errorf("queue line %d: duplicate candidate %s", lineNum, c.FullName)
		}
		q.entries[c.FullName] = &c
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queue: %w", err)
	}

	return q, nil
}

// Save writes the queue atomically via temp file + rename.
func (q *Queue) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating queue directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-queue-*.jsonl")
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

	for _, c := range q.List("") {
		data, err := json.Marshal(c)
		if err != nil {
			tmpFile.Close()
			return fmt.Errorf("encoding candidate %s: %w", c.FullName, err)
		}
		if _, err := tmpFile.Write(append(data, '\n')); err != nil {
			tmpFile.Close()
			return fmt.Errorf("writing candidate %s: %w", c.FullName, err)
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
