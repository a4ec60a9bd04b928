package profiler

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CodecProfiler tracks the latency of codec operations and numeric metrics
// such as compressed sizes, and reports them through a zap logger.
//
// All methods are safe for concurrent use.
type CodecProfiler struct {
	reportInterval time.Duration
	maxSamples     int
	logger         *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	start   time.Time
	running bool

	metrics    map[string]*metricTracker
	operations map[string]*timeTracker
}

// metricTracker keeps a sliding window of values.
type metricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// timeTracker keeps a sliding window of operation durations.
type timeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
	failures  int64
}

// Options configures the profiler.
type Options struct {
	// ReportInterval specifies how often Start emits reports (default: 2s)
	ReportInterval time.Duration
	// MaxSamples bounds the window kept per operation and metric (default: 1000)
	MaxSamples int
	// Logger receives the reports (default: no-op)
	Logger *zap.Logger
}

// OperationStats summarizes the samples of one operation.
type OperationStats struct {
	Name     string
	Count    int64
	Failures int64
	Samples  int
	Min      time.Duration
	Max      time.Duration
	Mean     time.Duration
	P50      time.Duration
	P95      time.Duration
}

// MetricStats summarizes the samples of one metric.
type MetricStats struct {
	Name    string
	Count   int64
	Samples int
	Min     float64
	Max     float64
	Mean    float64
}

// Snapshot is a point-in-time copy of all statistics.
type Snapshot struct {
	Uptime     time.Duration
	Goroutines int
	HeapAlloc  uint64
	NumGC      uint32
	Operations []OperationStats
	Metrics    []MetricStats
}

// New creates a profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured CodecProfiler; call Start for periodic reports
func New(opts Options) *CodecProfiler {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = 2 * time.Second
	}
	if opts.MaxSamples == 0 {
		opts.MaxSamples = 1000
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &CodecProfiler{
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		logger:         opts.Logger,
		ctx:            ctx,
		cancel:         cancel,
		start:          time.Now(),
		metrics:        make(map[string]*metricTracker),
		operations:     make(map[string]*timeTracker),
	}
}

// Start emits a report every ReportInterval until Stop. Calling it again
// while running is a no-op.
func (p *CodecProfiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.ctx.Done():
				return
			case <-ticker.C:
				p.Report()
			}
		}
	}()
}

// Stop halts periodic reporting and waits for the reporter to exit.
func (p *CodecProfiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call with the operation's error when it completes
//
// @example
// done := p.StartOperation("decode")
// img, err := dec.Decode(data)
// done(err)
func (p *CodecProfiler) StartOperation(name string) func(err error) {
	start := time.Now()
	return func(err error) {
		p.RecordOperation(name, time.Since(start), err)
	}
}

// RecordOperation records one completed operation. Failed operations are
// counted but do not contribute to the latency window.
func (p *CodecProfiler) RecordOperation(name string, d time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.operations[name]
	if !ok {
		t = &timeTracker{}
		p.operations[name] = t
	}

	t.count++
	if err != nil {
		t.failures++
		return
	}

	if t.count == t.failures+1 {
		t.minTime, t.maxTime = d, d
	}
	t.durations = append(t.durations, d)
	t.totalTime += d
	if len(t.durations) > p.maxSamples {
		t.totalTime -= t.durations[0]
		t.durations = t.durations[1:]
	}
	if d < t.minTime {
		t.minTime = d
	}
	if d > t.maxTime {
		t.maxTime = d
	}
}

// RecordMetric records a metric value, e.g. the size of an encoded stream.
func (p *CodecProfiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.metrics[name]
	if !ok {
		m = &metricTracker{min: value, max: value}
		p.metrics[name] = m
	}

	m.values = append(m.values, value)
	m.sum += value
	if len(m.values) > p.maxSamples {
		m.sum -= m.values[0]
		m.values = m.values[1:]
	}
	m.count++
	if value < m.min {
		m.min = value
	}
	if value > m.max {
		m.max = value
	}
}

// Snapshot returns the current statistics, sorted by name.
func (p *CodecProfiler) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Uptime:     time.Since(p.start),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		NumGC:      mem.NumGC,
	}

	for name, t := range p.operations {
		st := OperationStats{Name: name, Count: t.count, Failures: t.failures, Samples: len(t.durations)}
		if n := len(t.durations); n > 0 {
			sorted := append([]time.Duration(nil), t.durations...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
			st.Min = t.minTime
			st.Max = t.maxTime
			st.Mean = t.totalTime / time.Duration(n)
			st.P50 = percentile(sorted, 0.50)
			st.P95 = percentile(sorted, 0.95)
		}
		s.Operations = append(s.Operations, st)
	}
	sort.Slice(s.Operations, func(i, j int) bool { return s.Operations[i].Name < s.Operations[j].Name })

	for name, m := range p.metrics {
		st := MetricStats{Name: name, Count: m.count, Samples: len(m.values), Min: m.min, Max: m.max}
		if n := len(m.values); n > 0 {
			st.Mean = m.sum / float64(n)
		}
		s.Metrics = append(s.Metrics, st)
	}
	sort.Slice(s.Metrics, func(i, j int) bool { return s.Metrics[i].Name < s.Metrics[j].Name })

	return s
}

// Report logs the current snapshot at info level.
func (p *CodecProfiler) Report() {
	s := p.Snapshot()

	p.logger.Info("profiler status",
		zap.Duration("uptime", s.Uptime.Truncate(time.Millisecond)),
		zap.Int("goroutines", s.Goroutines),
		zap.String("heap_alloc", FormatBytes(s.HeapAlloc)),
		zap.Uint32("gc_cycles", s.NumGC),
	)
	for _, op := range s.Operations {
		p.logger.Info("operation timing",
			zap.String("operation", op.Name),
			zap.Int64("count", op.Count),
			zap.Int64("failures", op.Failures),
			zap.Duration("mean", op.Mean.Truncate(time.Microsecond)),
			zap.Duration("p50", op.P50.Truncate(time.Microsecond)),
			zap.Duration("p95", op.P95.Truncate(time.Microsecond)),
			zap.Duration("min", op.Min.Truncate(time.Microsecond)),
			zap.Duration("max", op.Max.Truncate(time.Microsecond)),
		)
	}
	for _, m := range s.Metrics {
		p.logger.Info("metric",
			zap.String("metric", m.Name),
			zap.Int64("count", m.Count),
			zap.Float64("mean", m.Mean),
			zap.Float64("min", m.Min),
			zap.Float64("max", m.Max),
		)
	}
}

// percentile expects sorted to be non-empty and ascending.
func percentile(sorted []time.Duration, q float64) time.Duration {
	idx := int(q*float64(len(sorted)-1) + 0.5)
	return sorted[idx]
}

// FormatBytes formats byte counts in human-readable format.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
