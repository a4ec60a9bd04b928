package profiler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecordOperation(t *testing.T) {
	p := New(Options{})

	for i := 1; i <= 100; i++ {
		p.RecordOperation("decode", time.Duration(i)*time.Millisecond, nil)
	}
	p.RecordOperation("decode", time.Hour, errors.New("corrupt"))

	s := p.Snapshot()
	require.Len(t, s.Operations, 1)

	op := s.Operations[0]
	assert.Equal(t, "decode", op.Name)
	assert.Equal(t, int64(101), op.Count)
	assert.Equal(t, int64(1), op.Failures)
	assert.Equal(t, 100, op.Samples)
	assert.Equal(t, time.Millisecond, op.Min)
	assert.Equal(t, 100*time.Millisecond, op.Max)
	assert.Equal(t, 50500*time.Microsecond, op.Mean)
	assert.Equal(t, 51*time.Millisecond, op.P50)
	assert.Equal(t, 95*time.Millisecond, op.P95)
}

func TestSlidingWindow(t *testing.T) {
	p := New(Options{MaxSamples: 3})

	for _, v := range []float64{100, 1, 2, 3} {
		p.RecordMetric("bytes", v)
	}

	s := p.Snapshot()
	require.Len(t, s.Metrics, 1)
	m := s.Metrics[0]
	assert.Equal(t, int64(4), m.Count)
	assert.Equal(t, 3, m.Samples)
	assert.InDelta(t, 2.0, m.Mean, 1e-9)
	assert.Equal(t, 1.0, m.Min)
	assert.Equal(t, 100.0, m.Max, "extremes cover every sample")
}

func TestStartOperation(t *testing.T) {
	p := New(Options{})

	done := p.StartOperation("encode")
	time.Sleep(2 * time.Millisecond)
	done(nil)

	p.StartOperation("encode")(errors.New("boom"))

	s := p.Snapshot()
	require.Len(t, s.Operations, 1)
	assert.Equal(t, int64(2), s.Operations[0].Count)
	assert.Equal(t, int64(1), s.Operations[0].Failures)
	assert.GreaterOrEqual(t, s.Operations[0].Min, 2*time.Millisecond)
}

func TestSnapshotSorted(t *testing.T) {
	p := New(Options{})
	for _, name := range []string{"encode", "decode", "read_header"} {
		p.RecordOperation(name, time.Millisecond, nil)
		p.RecordMetric(name+"_bytes", 1)
	}

	s := p.Snapshot()
	require.Len(t, s.Operations, 3)
	assert.Equal(t, "decode", s.Operations[0].Name)
	assert.Equal(t, "encode", s.Operations[1].Name)
	assert.Equal(t, "read_header", s.Operations[2].Name)
	assert.Equal(t, "decode_bytes", s.Metrics[0].Name)
}

func TestConcurrentRecording(t *testing.T) {
	p := New(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.RecordOperation("decode", time.Microsecond, nil)
				p.RecordMetric("bytes", float64(j))
			}
		}()
	}
	wg.Wait()

	s := p.Snapshot()
	assert.Equal(t, int64(800), s.Operations[0].Count)
	assert.Equal(t, int64(800), s.Metrics[0].Count)
}

func TestReport(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := New(Options{Logger: zap.New(core)})

	p.RecordOperation("decode", time.Millisecond, nil)
	p.RecordMetric("bytes", 10)
	p.Report()

	assert.Equal(t, 1, logs.FilterMessage("profiler status").Len())
	ops := logs.FilterMessage("operation timing").All()
	require.Len(t, ops, 1)
	assert.Equal(t, "decode", ops[0].ContextMap()["operation"])
	assert.Equal(t, 1, logs.FilterMessage("metric").Len())
}

func TestStartStop(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := New(Options{ReportInterval: 5 * time.Millisecond, Logger: zap.New(core)})

	p.Start()
	p.Start()
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("profiler status").Len() > 0
	}, time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2<<20))
}
