package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Timestamp layouts accepted when reading session files. Files are
// written with RFC 3339 nanosecond precision; older files may carry
// zone-less ISO-8601 timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp parses a session timestamp, tolerating the legacy
// encoding where colons in the time portion were replaced with hyphens
// for filesystem-safe filenames. Returns false for anything it cannot
// parse; callers treat that as "no timestamp".
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Legacy format: restore colons in the time portion and retry
	parts := strings.SplitN(s, "T", 2)
	if len(parts) == 2 {
		restored := parts[0] + "T" + strings.ReplaceAll(parts[1], "-", ":")
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, restored); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// HistoryManager owns the on-disk debate history. Each session lives in
// its own directory under BaseDir, with one canonical file plus any
// snapshots. Writes are whole-file rewrites; callers must treat a
// session as single-writer.
type HistoryManager struct {
	BaseDir string
}

// NewHistoryManager creates a manager rooted at baseDir, defaulting to
// the configured history directory.
func NewHistoryManager(baseDir string) *HistoryManager {
	if baseDir == "" {
		baseDir = HistoryDir
	}
	return &HistoryManager{BaseDir: baseDir}
}

// sessionPath returns the canonical file path for a session.
func (h *HistoryManager) sessionPath(sessionID string) string {
	return filepath.Join(h.BaseDir, sessionID, "session_"+sessionID+".json")
}

// SaveDebate writes the canonical file for a session, creating the
// session directory on first save. The created timestamp is set once
// and preserved across every subsequent write; last_updated is set on
// every write. Returns the path of the canonical file.
func (h *HistoryManager) SaveDebate(sessionID string, messages []Message) (string, error) {
	sessionDir := filepath.Join(h.BaseDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}

	path := h.sessionPath(sessionID)
	now := time.Now().Format(time.RFC3339Nano)

	// If the file exists, preserve its creation timestamp
	created := now
	if existing, err := os.ReadFile(path); err == nil {
		var prev SessionData
		if err := json.Unmarshal(existing, &prev); err == nil && prev.CreatedTimestamp != "" {
			created = prev.CreatedTimestamp
		}
	}

	if messages == nil {
		messages = []Message{}
	}

	data := SessionData{
		SessionID:        sessionID,
		CreatedTimestamp: created,
		LastUpdated:      now,
		Messages:         messages,
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write session file: %w", err)
	}

	return path, nil
}

// CreateSnapshot copies the current canonical file into an immutable
// timestamp-named file in the same session directory. Returns "" with
// no error if the session has no canonical file yet. Snapshots are
// never read back by canonical load flows but are discoverable by
// directory-wide scans.
func (h *HistoryManager) CreateSnapshot(sessionID string) (string, error) {
	raw, err := os.ReadFile(h.sessionPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	// Colons are not filesystem-safe everywhere
	stamp := strings.ReplaceAll(time.Now().Format(time.RFC3339Nano), ":", "-")
	snapshotPath := filepath.Join(h.BaseDir, sessionID, "snapshot_"+stamp+".json")

	if err := os.WriteFile(snapshotPath, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	return snapshotPath, nil
}

// LoadDebate reads one session file, tolerating the legacy single
// timestamp field and a missing created timestamp.
func (h *HistoryManager) LoadDebate(path string) (*SessionData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read debate file: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse debate file: %w", err)
	}

	if data.LastUpdated == "" {
		data.LastUpdated = data.Timestamp
	}
	if data.CreatedTimestamp == "" {
		data.CreatedTimestamp = data.LastUpdated
	}

	return &data, nil
}

// DeleteMessage removes exactly one message by position from the
// canonical file and re-persists it. Returns false, with no mutation,
// if the session has no canonical file or the index is out of range.
func (h *HistoryManager) DeleteMessage(sessionID string, index int) bool {
	path := h.sessionPath(sessionID)

	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("Error deleting message: %v", err)
		return false
	}

	if index < 0 || index >= len(data.Messages) {
		return false
	}

	data.Messages = append(data.Messages[:index], data.Messages[index+1:]...)
	data.LastUpdated = time.Now().Format(time.RFC3339Nano)

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Printf("Error deleting message: %v", err)
		return false
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		log.Printf("Error deleting message: %v", err)
		return false
	}

	return true
}

// DeleteDebateFile removes one history file, and its parent session
// directory if that leaves the directory empty. Returns false on any
// failure (missing path, not a file).
func (h *HistoryManager) DeleteDebateFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	if err := os.Remove(path); err != nil {
		log.Printf("Error deleting debate file: %v", err)
		return false
	}

	parent := filepath.Dir(path)
	if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
		if err := os.Remove(parent); err != nil {
			log.Printf("Error removing empty session directory: %v", err)
		}
	}

	return true
}

// ListAllDebates returns one summary per session directory, preferring
// the canonical file and falling back to the most recently modified
// file. Summaries are sorted by updated time, newest first, with
// unparsable timestamps last, and truncated to limit. A limit of zero
// or less means no truncation; the HTTP layer only passes positive
// limits. A bad file never excludes the other sessions.
func (h *HistoryManager) ListAllDebates(limit int) ([]SessionSummary, error) {
	entries, err := os.ReadDir(h.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionSummary{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	type entryWithTime struct {
		summary SessionSummary
		updated time.Time
		parsed  bool
	}
	var all []entryWithTime

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessionID := entry.Name()
		sessionDir := filepath.Join(h.BaseDir, sessionID)

		debateFile := h.sessionPath(sessionID)
		if _, err := os.Stat(debateFile); err != nil {
			debateFile = newestJSONFile(sessionDir)
			if debateFile == "" {
				continue
			}
		}

		data, err := h.LoadDebate(debateFile)
		if err != nil {
			log.Printf("Error loading debate file %s: %v", debateFile, err)
			continue
		}

		// First user input serves as the preview
		preview := "N/A"
		for _, msg := range data.Messages {
			if msg.IsInput() {
				preview = truncateRunes(msg.Content, 100)
				break
			}
		}

		updated, parsed := ParseTimestamp(data.LastUpdated)
		all = append(all, entryWithTime{
			summary: SessionSummary{
				Path:      debateFile,
				SessionID: sessionID,
				Created:   data.CreatedTimestamp,
				Updated:   data.LastUpdated,
				Preview:   preview,
			},
			updated: updated,
			parsed:  parsed,
		})
	}

	// Newest first; sessions without a parsable timestamp sort last
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].parsed != all[j].parsed {
			return all[i].parsed
		}
		return all[i].updated.After(all[j].updated)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	summaries := make([]SessionSummary, 0, len(all))
	for _, e := range all {
		summaries = append(summaries, e.summary)
	}
	return summaries, nil
}

// SearchDebates scans every session directory for files matching the
// given keyword and/or date range (YYYY-MM-DD, inclusive). For each
// session the canonical file is preferred; without one, every file in
// the directory is checked. Matching paths are deduplicated. Unreadable
// files are skipped, never fatal.
func (h *HistoryManager) SearchDebates(keyword, startDate, endDate string) ([]string, error) {
	var start, end time.Time
	var hasStart, hasEnd bool

	// Dates are calendar days in the machine's local zone, matching the
	// zone session timestamps are written in
	if startDate != "" {
		t, err := time.ParseInLocation("2006-01-02", startDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		start, hasStart = t, true
	}
	if endDate != "" {
		t, err := time.ParseInLocation("2006-01-02", endDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
		}
		// Inclusive through the end of the day
		end = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
		hasEnd = true
	}

	entries, err := os.ReadDir(h.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	// Scan session directories in parallel; the result set is
	// deduplicated by path
	results := make(map[string]struct{})
	var mu sync.Mutex
	var g errgroup.Group

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessionDir := filepath.Join(h.BaseDir, entry.Name())
		mainFile := h.sessionPath(entry.Name())

		g.Go(func() error {
			files := []string{mainFile}
			if _, err := os.Stat(mainFile); err != nil {
				files = jsonFiles(sessionDir)
			}

			for _, file := range files {
				if h.matchDebateFile(file, keyword, start, end, hasStart, hasEnd) {
					mu.Lock()
					results[file] = struct{}{}
					mu.Unlock()
				}
			}
			return nil
		})
	}

	// Workers never return errors; bad files are logged and skipped
	_ = g.Wait()

	paths := make([]string, 0, len(results))
	for p := range results {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// matchDebateFile checks one file against the search criteria. With no
// criteria given, every readable file matches.
func (h *HistoryManager) matchDebateFile(path, keyword string, start, end time.Time, hasStart, hasEnd bool) bool {
	data, err := h.LoadDebate(path)
	if err != nil {
		log.Printf("Error checking file %s: %v", path, err)
		return false
	}

	if hasStart || hasEnd {
		ts, ok := ParseTimestamp(data.LastUpdated)
		if !ok {
			return false
		}
		if hasStart && ts.Before(start) {
			return false
		}
		if hasEnd && ts.After(end) {
			return false
		}
	}

	if keyword != "" {
		needle := strings.ToLower(keyword)
		found := false
		for _, msg := range data.Messages {
			if strings.Contains(strings.ToLower(msg.Content), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// newestJSONFile returns the most recently modified .json file in dir,
// or "" if there is none.
func newestJSONFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	return newest
}

// jsonFiles returns every .json file in dir.
func jsonFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
