// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/agenthub/internal/config"
	"github.com/jeranaias/agenthub/internal/util"
)

// sessionTimeLayout prefixes session IDs and file names.
const sessionTimeLayout = "20060102-150405"

// =============================================================================
// USAGE STORAGE
// =============================================================================

// UsageStorage keeps one JSON file per session.
type UsageStorage struct {
	dir string
}

// NewUsageStorage creates the storage directory if needed. An empty dir
// selects ~/.agenthub/usage.
func NewUsageStorage(dir string) (*UsageStorage, error) {
	if dir == "" {
		base, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "usage")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &UsageStorage{dir: dir}, nil
}

// Dir returns the storage directory.
func (us *UsageStorage) Dir() string { return us.dir }

// Save writes a session atomically.
func (us *UsageStorage) Save(s *SessionUsage) error {
	if s == nil {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(us.path(s.ID), data, 0o600)
}

// Load reads one session.
func (us *UsageStorage) Load(id string) (*SessionUsage, error) {
	data, err := os.ReadFile(us.path(id))
	if err != nil {
		return nil, err
	}
	var s SessionUsage
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Outcomes == nil {
		s.Outcomes = make(map[string]int)
	}
	return &s, nil
}

// List returns the IDs of sessions started within [from, to], oldest first.
func (us *UsageStorage) List(from, to time.Time) ([]string, error) {
	ids, err := us.ids()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range ids {
		ts, ok := sessionTime(id)
		if !ok || ts.Before(from) || ts.After(to) {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// DeleteBefore removes sessions started before the given time.
func (us *UsageStorage) DeleteBefore(before time.Time) error {
	ids, err := us.ids()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if ts, ok := sessionTime(id); ok && ts.Before(before) {
			_ = os.Remove(us.path(id))
		}
	}
	return nil
}

// Count returns the number of stored sessions.
func (us *UsageStorage) Count() (int, error) {
	ids, err := us.ids()
	return len(ids), err
}

func (us *UsageStorage) ids() ([]string, error) {
	entries, err := os.ReadDir(us.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

func (us *UsageStorage) path(id string) string {
	return filepath.Join(us.dir, id+".json")
}

// sessionTime parses the timestamp prefix of a session ID in local time.
func sessionTime(id string) (time.Time, bool) {
	if len(id) < len(sessionTimeLayout) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(sessionTimeLayout, id[:len(sessionTimeLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
