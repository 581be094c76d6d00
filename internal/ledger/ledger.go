// Package ledger persists the set of tweet IDs the bot has already replied
// to, plus the operator-maintained list of tweet IDs to watch. Both files are
// line-oriented: one ID per line, blank lines and #-comments ignored.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const repliedLogHeader = `# Tweet IDs the bot has already replied to. Appended automatically.
# Do not edit by hand.
`

const targetFileHeader = `# One tweet ID per line. Replies to these tweets are picked up by the bot.
# Example:
# 1234567890123456789
# 9876543210987654321
`

// Ledger is the append-only log of already-replied tweet IDs
type Ledger struct {
	path string
}

// New creates a ledger backed by the given file path
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// EnsureExists creates the ledger file with an explanatory header if absent
func (l *Ledger) EnsureExists() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat replied log: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(repliedLogHeader), 0o644); err != nil {
		return fmt.Errorf("create replied log: %w", err)
	}
	return nil
}

// Load reads the full set of replied tweet IDs. A missing file is an empty set.
func (l *Ledger) Load() (map[string]struct{}, error) {
	ids, err := readIDLines(l.path)
	if err != nil {
		return nil, fmt.Errorf("read replied log: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Record appends a tweet ID to the log. Must only be called after the reply
// post has been confirmed. Appending an ID twice is harmless: Load folds
// duplicates into the set.
func (l *Ledger) Record(id string) error {
	if err := l.EnsureExists(); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open replied log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, id); err != nil {
		return fmt.Errorf("append to replied log: %w", err)
	}
	return nil
}

// EnsureTargetFile creates the target-IDs file with a commented template if absent
func EnsureTargetFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat target file: %w", err)
	}
	if err := os.WriteFile(path, []byte(targetFileHeader), 0o644); err != nil {
		return fmt.Errorf("create target file: %w", err)
	}
	return nil
}

// ReadTargetIDs reads the tracked tweet IDs, preserving file order.
// A missing file yields an empty list.
func ReadTargetIDs(path string) ([]string, error) {
	ids, err := readIDLines(path)
	if err != nil {
		return nil, fmt.Errorf("read target file: %w", err)
	}
	return ids, nil
}

func readIDLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
