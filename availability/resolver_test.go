package availability

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adrianmcphee/crossbase"
)

func observedLogger() (crossbase.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return crossbase.NewZapLogger(zap.New(core)), logs
}

func TestResolverProbesOnce(t *testing.T) {
	var calls atomic.Int32
	r := New(func() (bool, error) {
		calls.Add(1)
		return true, nil
	})

	if r.Flag() != Unknown {
		t.Fatalf("Flag() before first use = %v, want unknown", r.Flag())
	}
	for i := 0; i < 3; i++ {
		if !r.IsAvailable() {
			t.Fatal("IsAvailable() = false, want true")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("probe ran %d times, want 1", calls.Load())
	}
	if r.Flag() != Available {
		t.Errorf("Flag() = %v, want available", r.Flag())
	}
}

func TestResolverConcurrentFirstUse(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	r := New(func() (bool, error) {
		calls.Add(1)
		<-release
		return true, nil
	})

	const n = 50
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.IsAvailable()
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for got := range results {
		if !got {
			t.Error("a racing caller observed a different verdict")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("probe ran %d times under contention, want 1", calls.Load())
	}
}

func TestResolverAbsorbsProbeError(t *testing.T) {
	logger, logs := observedLogger()
	metrics := crossbase.NewInMemoryMetrics()
	var calls atomic.Int32

	r := New(func() (bool, error) {
		calls.Add(1)
		return true, errors.New("lookup exploded")
	}, WithLogger(logger), WithMetrics(metrics))

	if r.IsAvailable() {
		t.Error("a failing probe must resolve to unavailable")
	}
	if r.IsAvailable() {
		t.Error("verdict changed on second call")
	}
	if calls.Load() != 1 {
		t.Errorf("failing probe ran %d times, want 1", calls.Load())
	}

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warns) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warns))
	}
	if metrics.Counter(crossbase.MetricProbeError) != 1 {
		t.Errorf("probe error counter = %d, want 1", metrics.Counter(crossbase.MetricProbeError))
	}
	if metrics.Counter(crossbase.MetricProbe, "package", FullPackage, "available", "false") != 1 {
		t.Error("probe outcome was not counted")
	}
}

func TestResolverAbsorbsProbePanic(t *testing.T) {
	logger, logs := observedLogger()
	r := New(func() (bool, error) { panic("boom") }, WithLogger(logger))

	if r.IsAvailable() {
		t.Error("a panicking probe must resolve to unavailable")
	}
	if logs.FilterMessage("availability probe failed, treating backend as absent").Len() != 1 {
		t.Error("panic was not logged as a probe failure")
	}
}

func TestResolverMalformedPackage(t *testing.T) {
	logger, logs := observedLogger()
	c := NewCatalog()
	r := New(CatalogProbe(c, "bad package//name"), WithLogger(logger), WithPackage("bad package//name"))

	if r.IsAvailable() {
		t.Error("malformed package must resolve to unavailable")
	}
	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings, want 1", len(entries))
	}
	var err error
	for _, f := range entries[0].Context {
		if f.Key == "error" {
			err, _ = f.Interface.(error)
		}
	}
	if err == nil {
		t.Fatalf("warning carries no error field: %v", entries[0].ContextMap())
	}
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) || !errors.Is(err, ErrMalformedPackage) {
		t.Errorf("logged error = %v, want *ProbeError wrapping ErrMalformedPackage", err)
	}
}

func TestResolverNilProbe(t *testing.T) {
	if New(nil).IsAvailable() {
		t.Error("nil probe should resolve to unavailable")
	}
}

func TestFixed(t *testing.T) {
	if !Fixed(true).IsAvailable() || Fixed(false).IsAvailable() {
		t.Error("Fixed resolver did not report its verdict")
	}
	if Fixed(true).Flag() != Available {
		t.Error("Fixed(true) should already be resolved")
	}
}

func TestFlagString(t *testing.T) {
	tests := map[Flag]string{Unknown: "unknown", Available: "available", Unavailable: "unavailable"}
	for f, want := range tests {
		if f.String() != want {
			t.Errorf("%d.String() = %q, want %q", f, f.String(), want)
		}
	}
}
