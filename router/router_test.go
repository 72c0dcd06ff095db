package router

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/availability"
)

type greetFunc = func(name string) string
type countFunc = func() int

type greeterOps struct {
	Greet greetFunc
	Count countFunc
}

var greeterGroup = Group{Name: "greeter", Version: 1, Symbols: []string{"Greet", "Count"}}

func decodeGreeter(ns Namespace) (greeterOps, error) {
	var ops greeterOps
	var err error
	if ops.Greet, err = Lookup[greetFunc](ns, "Greet"); err != nil {
		return ops, err
	}
	if ops.Count, err = Lookup[countFunc](ns, "Count"); err != nil {
		return ops, err
	}
	return ops, nil
}

type echoOps struct{ Echo func(string) string }

var echoGroup = Group{Name: "echo", Version: 1, Symbols: []string{"Echo"}}

func decodeEcho(ns Namespace) (echoOps, error) {
	fn, err := Lookup[func(string) string](ns, "Echo")
	return echoOps{Echo: fn}, err
}

func greeterNamespace(prefix string, count int) Namespace {
	return Namespace{
		"Greet": func(name string) string { return prefix + " " + name },
		"Count": func() int { return count },
	}
}

func observed() (crossbase.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return crossbase.NewZapLogger(zap.New(core)), logs
}

func TestBindFullWhenAvailable(t *testing.T) {
	reg := NewRegistry()
	reg.Provide(Full, "greeter", greeterNamespace("full", 1))
	reg.Provide(Standalone, "greeter", greeterNamespace("standalone", 2))

	metrics := crossbase.NewInMemoryMetrics()
	r := New(availability.Fixed(true), reg, WithMetrics(metrics))

	ops, backend, err := Bind(r, greeterGroup, decodeGreeter)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if backend != Full {
		t.Errorf("backend = %v, want full", backend)
	}
	if got := ops.Greet("ann"); got != "full ann" || ops.Count() != 1 {
		t.Errorf("mixed binding: Greet=%q Count=%d", got, ops.Count())
	}
	if metrics.Counter(crossbase.MetricRouterBind, "group", "greeter", "backend", "full") != 1 {
		t.Error("bind was not counted")
	}
	if r.Backend("greeter") != Full {
		t.Errorf("Router.Backend() = %v", r.Backend("greeter"))
	}
}

func TestBindStandaloneWhenUnavailable(t *testing.T) {
	reg := NewRegistry()
	reg.Provide(Full, "greeter", greeterNamespace("full", 1))
	reg.Provide(Standalone, "greeter", greeterNamespace("standalone", 2))

	r := New(availability.Fixed(false), reg)
	ops, backend, err := Bind(r, greeterGroup, decodeGreeter)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if backend != Standalone {
		t.Errorf("backend = %v, want standalone", backend)
	}
	if ops.Greet("bo") != "standalone bo" || ops.Count() != 2 {
		t.Error("standalone-only binding served a full symbol")
	}
}

func TestBindPartialFallsBackWholeGroup(t *testing.T) {
	logger, logs := observed()
	metrics := crossbase.NewInMemoryMetrics()

	partial := greeterNamespace("full", 1)
	delete(partial, "Count")

	reg := NewRegistry()
	reg.Provide(Full, "greeter", partial)
	reg.Provide(Standalone, "greeter", greeterNamespace("standalone", 2))
	reg.Provide(Full, "echo", Namespace{"Echo": func(s string) string { return "full:" + s }})
	reg.Provide(Standalone, "echo", Namespace{"Echo": func(s string) string { return "standalone:" + s }})

	r := New(availability.Fixed(true), reg, WithLogger(logger), WithMetrics(metrics))

	ops, backend, err := Bind(r, greeterGroup, decodeGreeter)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if backend != Standalone {
		t.Errorf("partial group bound to %v, want standalone", backend)
	}
	if ops.Greet("cy") != "standalone cy" {
		t.Error("Greet came from full although the group fell back")
	}

	echo, backend, err := Bind(r, echoGroup, decodeEcho)
	if err != nil || backend != Full || echo.Echo("x") != "full:x" {
		t.Errorf("sibling group should stay on full, got %v %v", backend, err)
	}

	warns := logs.FilterMessage("capability group falling back to standalone backend").All()
	if len(warns) != 1 {
		t.Fatalf("got %d fallback warnings, want 1", len(warns))
	}
	if metrics.Counter(crossbase.MetricRouterFallback, "group", "greeter") != 1 {
		t.Error("fallback was not counted")
	}
}

func TestBindIllTypedSymbolFallsBack(t *testing.T) {
	reg := NewRegistry()
	reg.Provide(Full, "greeter", Namespace{
		"Greet": func(name string) string { return "full " + name },
		"Count": "not a function",
	})
	reg.Provide(Standalone, "greeter", greeterNamespace("standalone", 2))

	r := New(availability.Fixed(true), reg)
	ops, backend, err := Bind(r, greeterGroup, decodeGreeter)
	if err != nil || backend != Standalone {
		t.Fatalf("Bind() = %v, %v; want standalone", backend, err)
	}
	if ops.Greet("x") != "standalone x" {
		t.Error("Greet came from full although the group fell back")
	}
}

func TestBindUnresolvable(t *testing.T) {
	reg := NewRegistry()
	reg.Provide(Standalone, "greeter", Namespace{"Greet": greeterNamespace("s", 0)["Greet"]})

	metrics := crossbase.NewInMemoryMetrics()
	r := New(availability.Fixed(false), reg, WithMetrics(metrics))

	_, backend, err := Bind(r, greeterGroup, decodeGreeter)
	var uerr *UnresolvableGroupError
	if !errors.As(err, &uerr) {
		t.Fatalf("Bind() error = %v, want *UnresolvableGroupError", err)
	}
	if uerr.Group != "greeter" || backend != None {
		t.Errorf("error = %+v, backend = %v", uerr, backend)
	}
	if !errors.Is(err, ErrUnresolvable) {
		t.Error("UnresolvableGroupError should match ErrUnresolvable")
	}
	var perr *PartialAvailabilityError
	if !errors.As(err, &perr) || len(perr.Missing) != 1 || perr.Missing[0] != "Count" {
		t.Errorf("cause = %v, want missing Count", perr)
	}

	_, _, again := Bind(r, greeterGroup, decodeGreeter)
	if again != err {
		t.Error("unresolvable outcome should be memoized")
	}
	if metrics.Counter(crossbase.MetricRouterFailure, "group", "greeter") != 1 {
		t.Error("failure should be counted once")
	}
	if r.Backend("greeter") != None {
		t.Error("unresolvable group should report no backend")
	}
}

func TestBindMemoizedAcrossGoroutines(t *testing.T) {
	var decodes atomic.Int32
	reg := NewRegistry()
	reg.Provide(Standalone, "greeter", greeterNamespace("s", 0))
	r := New(availability.Fixed(false), reg)

	decode := func(ns Namespace) (greeterOps, error) {
		decodes.Add(1)
		return decodeGreeter(ns)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := Bind(r, greeterGroup, decode); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if decodes.Load() != 1 {
		t.Errorf("group decoded %d times, want 1", decodes.Load())
	}
}

func TestBindRecoversDecodePanic(t *testing.T) {
	reg := NewRegistry()
	reg.Provide(Full, "greeter", greeterNamespace("full", 1))
	reg.Provide(Standalone, "greeter", greeterNamespace("standalone", 2))
	r := New(availability.Fixed(true), reg)

	calls := 0
	decode := func(ns Namespace) (greeterOps, error) {
		calls++
		if calls == 1 {
			panic("bad namespace")
		}
		return decodeGreeter(ns)
	}

	_, backend, err := Bind(r, greeterGroup, decode)
	if err != nil || backend != Standalone {
		t.Errorf("Bind() = %v, %v; want standalone after decode panic", backend, err)
	}
}

func TestProvidePanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.Provide(Full, "greeter", greeterNamespace("a", 0))
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate Provide")
		}
	}()
	reg.Provide(Full, "greeter", greeterNamespace("b", 0))
}

func TestLookupConvertsNamedFuncTypes(t *testing.T) {
	type named func(string) string
	ns := Namespace{"Echo": func(s string) string { return s }}

	fn, err := Lookup[named](ns, "Echo")
	if err != nil || fn("ok") != "ok" {
		t.Errorf("Lookup[named] = %v", err)
	}

	var serr *SymbolError
	if _, err := Lookup[named](ns, "Missing"); !errors.As(err, &serr) || serr.Symbol != "Missing" {
		t.Errorf("Lookup(missing) error = %v", err)
	}
	if _, err := Lookup[func() int](ns, "Echo"); !errors.As(err, &serr) {
		t.Errorf("Lookup(wrong type) error = %v", err)
	}
}

func TestFacade(t *testing.T) {
	reg := NewRegistry()
	reg.Provide(Standalone, "greeter", greeterNamespace("s", 3))
	r := New(availability.Fixed(false), reg)

	f := NewFacade(greeterGroup, decodeGreeter).On(r)
	ops, err := f.Get()
	if err != nil || ops.Count() != 3 {
		t.Fatalf("Get() = %v", err)
	}
	if f.Backend() != Standalone {
		t.Errorf("Backend() = %v", f.Backend())
	}
	if got := r.Bindings(); len(got) != 1 || got[0] != (GroupBinding{Group: "greeter", Backend: Standalone}) {
		t.Errorf("Bindings() = %v", got)
	}

	empty := NewFacade(echoGroup, decodeEcho).On(New(availability.Fixed(true), NewRegistry()))
	if _, err := empty.Get(); err == nil || empty.Backend() != None {
		t.Error("facade over an empty registry should be unresolvable")
	}
}

func TestConfigureDefaultRouter(t *testing.T) {
	defaultMu.Lock()
	prevRouter, prevOpts := defaultRouter.Load(), defaultOpts
	defaultRouter.Store(nil)
	defaultOpts = nil
	defaultMu.Unlock()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultRouter.Store(prevRouter)
		defaultOpts = prevOpts
		defaultMu.Unlock()
	})

	m := crossbase.NewInMemoryMetrics()
	if err := Configure(WithMetrics(m)); err != nil {
		t.Fatalf("Configure() before Default error = %v", err)
	}
	if got := Default().metrics; got != crossbase.Metrics(m) {
		t.Errorf("default router metrics = %T, want the configured collector", got)
	}
	if err := Configure(WithMetrics(&crossbase.NoOpMetrics{})); !errors.Is(err, crossbase.ErrInvalidConfig) {
		t.Errorf("Configure() after Default error = %v, want ErrInvalidConfig", err)
	}
	if Default().metrics != crossbase.Metrics(m) {
		t.Error("late Configure must not change the default router")
	}
}
