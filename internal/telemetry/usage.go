// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/agenthub/internal/util"
)

// =============================================================================
// USAGE TRACKER
// =============================================================================

// MaxSlowQueries is how many of the slowest completed queries a session keeps.
const MaxSlowQueries = 10

// previewWidth bounds the stored query preview, in terminal cells.
const previewWidth = 80

// sessionIDCounter keeps session IDs unique when created within one second.
var sessionIDCounter uint64

// UsageTracker accumulates query statistics for the current session.
type UsageTracker struct {
	mu      sync.RWMutex
	current *SessionUsage
	storage *UsageStorage
	now     func() time.Time
}

// SessionUsage is the persisted record of one session.
type SessionUsage struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`

	Queries  int            `json:"queries"`
	Outcomes map[string]int `json:"outcomes"`
	Tokens   int            `json:"tokens"`
	Hits     int            `json:"hits"`

	// TotalLatency sums the latency of completed queries only.
	TotalLatency time.Duration `json:"total_latency"`
	Completed    int           `json:"completed"`

	SlowQueries []QueryRecord `json:"slow_queries"`
}

// QueryRecord describes one finished query.
type QueryRecord struct {
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
	Query     string        `json:"query"`
	Outcome   string        `json:"outcome"`
	Tokens    int           `json:"tokens"`
	Hits      int           `json:"hits"`
	Latency   time.Duration `json:"latency"`
}

// AverageLatency returns the mean latency of completed queries.
func (s *SessionUsage) AverageLatency() time.Duration {
	if s.Completed == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Completed)
}

// UsageTrends aggregates stored sessions over a window of days.
type UsageTrends struct {
	Days           int            `json:"days"`
	Sessions       int            `json:"sessions"`
	Queries        int            `json:"queries"`
	Tokens         int            `json:"tokens"`
	Outcomes       map[string]int `json:"outcomes"`
	AverageLatency time.Duration  `json:"average_latency"`
	Daily          []DailyUsage   `json:"daily"`
}

// DailyUsage is one day's totals.
type DailyUsage struct {
	Date    time.Time `json:"date"`
	Queries int       `json:"queries"`
	Tokens  int       `json:"tokens"`
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// NewUsageTracker creates a tracker persisting to dir (default
// ~/.agenthub/usage).
func NewUsageTracker(dir string) (*UsageTracker, error) {
	storage, err := NewUsageStorage(dir)
	if err != nil {
		return nil, err
	}
	ut := &UsageTracker{storage: storage, now: time.Now}
	ut.current = ut.newSession()
	return ut, nil
}

func (ut *UsageTracker) newSession() *SessionUsage {
	return &SessionUsage{
		ID:          generateSessionID(ut.now()),
		StartTime:   ut.now(),
		Outcomes:    make(map[string]int),
		SlowQueries: make([]QueryRecord, 0),
	}
}

// =============================================================================
// RECORDING
// =============================================================================

// Record adds a finished query to the current session. Ignored queries
// (blank input) are not counted.
func (ut *UsageTracker) Record(q QueryRecord) {
	if q.Outcome == "" || q.Outcome == "ignored" {
		return
	}
	if q.Timestamp.IsZero() {
		q.Timestamp = ut.now()
	}
	q.Query = util.Preview(q.Query, previewWidth)

	ut.mu.Lock()
	defer ut.mu.Unlock()

	s := ut.current
	s.Queries++
	s.Outcomes[q.Outcome]++
	s.Tokens += q.Tokens
	s.Hits += q.Hits

	if q.Outcome == "completed" {
		s.Completed++
		s.TotalLatency += q.Latency
		s.SlowQueries = append(s.SlowQueries, q)
		sort.SliceStable(s.SlowQueries, func(i, j int) bool {
			return s.SlowQueries[i].Latency > s.SlowQueries[j].Latency
		})
		if len(s.SlowQueries) > MaxSlowQueries {
			s.SlowQueries = s.SlowQueries[:MaxSlowQueries]
		}
	}
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// Current returns a copy of the current session.
func (ut *UsageTracker) Current() *SessionUsage {
	ut.mu.RLock()
	defer ut.mu.RUnlock()
	return copySession(ut.current)
}

// History loads stored sessions started within [from, to].
func (ut *UsageTracker) History(from, to time.Time) []*SessionUsage {
	ids, err := ut.storage.List(from, to)
	if err != nil {
		return nil
	}
	sessions := make([]*SessionUsage, 0, len(ids))
	for _, id := range ids {
		s, err := ut.storage.Load(id)
		if err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// Trends aggregates the stored sessions of the last days days.
func (ut *UsageTracker) Trends(days int) *UsageTrends {
	to := ut.now()
	from := to.AddDate(0, 0, -days)

	trends := &UsageTrends{
		Days:     days,
		Outcomes: make(map[string]int),
		Daily:    make([]DailyUsage, 0),
	}

	var (
		latency   time.Duration
		completed int
	)
	daily := make(map[string]*DailyUsage)
	for _, s := range ut.History(from, to) {
		trends.Sessions++
		trends.Queries += s.Queries
		trends.Tokens += s.Tokens
		for k, v := range s.Outcomes {
			trends.Outcomes[k] += v
		}
		latency += s.TotalLatency
		completed += s.Completed

		key := s.StartTime.Format("2006-01-02")
		d, ok := daily[key]
		if !ok {
			y, m, dd := s.StartTime.Date()
			d = &DailyUsage{Date: time.Date(y, m, dd, 0, 0, 0, 0, s.StartTime.Location())}
			daily[key] = d
		}
		d.Queries += s.Queries
		d.Tokens += s.Tokens
	}
	if completed > 0 {
		trends.AverageLatency = latency / time.Duration(completed)
	}

	for _, d := range daily {
		trends.Daily = append(trends.Daily, *d)
	}
	sort.Slice(trends.Daily, func(i, j int) bool {
		return trends.Daily[i].Date.Before(trends.Daily[j].Date)
	})
	return trends
}

// =============================================================================
// SESSION MANAGEMENT
// =============================================================================

// Save persists the current session without ending it.
func (ut *UsageTracker) Save() error {
	ut.mu.RLock()
	s := copySession(ut.current)
	ut.mu.RUnlock()
	if s.Queries == 0 {
		return nil
	}
	return ut.storage.Save(s)
}

// EndSession stamps and persists the current session and starts a new one.
// Sessions without queries are not written.
func (ut *UsageTracker) EndSession() error {
	ut.mu.Lock()
	defer ut.mu.Unlock()

	s := ut.current
	s.EndTime = ut.now()
	var err error
	if s.Queries > 0 {
		err = ut.storage.Save(s)
	}
	ut.current = ut.newSession()
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func copySession(src *SessionUsage) *SessionUsage {
	dst := *src
	dst.Outcomes = make(map[string]int, len(src.Outcomes))
	for k, v := range src.Outcomes {
		dst.Outcomes[k] = v
	}
	dst.SlowQueries = append([]QueryRecord(nil), src.SlowQueries...)
	return &dst
}

func generateSessionID(now time.Time) string {
	n := atomic.AddUint64(&sessionIDCounter, 1)
	return fmt.Sprintf("%s-%d", now.Format(sessionTimeLayout), n)
}
