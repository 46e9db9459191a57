package metrics

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"
)

const (
	SessionFinished = "credsd_session_finished_total"
	SessionSeconds  = "credsd_session_seconds"
	ActiveSessions  = "credsd_active_sessions"
	ProcessCPU      = "credsd_process_cpu_percent"
	ProcessRSSMB    = "credsd_process_rss_mb"
	ProcessThreads  = "credsd_process_threads"
	SweptDirs       = "credsd_swept_dirs_total"
	SystemCPU       = "credsd_system_cpu_percent"
	SystemMemUsedMB = "credsd_system_mem_used_mb"
)

// Store is a small time-series store for service gauges and counters.
type Store struct {
	st tstorage.Storage

	mu   sync.Mutex
	last int64
}

// Open creates the store. An empty dir keeps everything in memory.
func Open(dir string, retention time.Duration) (*Store, error) {
	opts := []tstorage.Option{
		tstorage.WithTimestampPrecision(tstorage.Nanoseconds),
	}
	if dir != "" {
		opts = append(opts, tstorage.WithDataPath(dir))
	}
	if retention > 0 {
		opts = append(opts, tstorage.WithRetention(retention))
	}
	st, err := tstorage.NewStorage(opts...)
	if err != nil {
		return nil, err
	}
	return &Store{st: st}, nil
}

func toLabels(m map[string]string) []tstorage.Label {
	if len(m) == 0 {
		return nil
	}
	labels := make([]tstorage.Label, 0, len(m))
	for k, v := range m {
		labels = append(labels, tstorage.Label{Name: k, Value: v})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })
	return labels
}

// Observe records value for metric at the current time. Every point gets
// its own timestamp so back-to-back counter increments are all kept.
func (s *Store) Observe(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	ts := time.Now().UnixNano()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	err := s.st.InsertRows([]tstorage.Row{{
		Metric:    metric,
		Labels:    toLabels(labels),
		DataPoint: tstorage.DataPoint{Timestamp: ts, Value: value},
	}})
	s.mu.Unlock()
	if err != nil {
		zap.L().Warn("metrics: insert failed", zap.String("metric", metric), zap.Error(err))
	}
}

// Inc records a single occurrence of a counter metric.
func (s *Store) Inc(metric string, labels map[string]string) {
	s.Observe(metric, 1, labels)
}

func (s *Store) points(metric string, labels map[string]string, since time.Time) ([]*tstorage.DataPoint, error) {
	s.mu.Lock()
	end := max(time.Now().UnixNano(), s.last) + 1
	s.mu.Unlock()
	pts, err := s.st.Select(metric, toLabels(labels), since.UnixNano(), end)
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return nil, nil
	}
	return pts, err
}

// Sum adds up every value of metric recorded since since.
func (s *Store) Sum(metric string, labels map[string]string, since time.Time) (float64, error) {
	pts, err := s.points(metric, labels, since)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range pts {
		total += p.Value
	}
	return total, nil
}

// Last returns the most recent value of metric recorded since since.
func (s *Store) Last(metric string, labels map[string]string, since time.Time) (float64, bool, error) {
	pts, err := s.points(metric, labels, since)
	if err != nil || len(pts) == 0 {
		return 0, false, err
	}
	latest := pts[0]
	for _, p := range pts[1:] {
		if p.Timestamp >= latest.Timestamp {
			latest = p
		}
	}
	return latest.Value, true, nil
}

func (s *Store) Close() error {
	return s.st.Close()
}
