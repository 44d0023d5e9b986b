package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
)

var quiet = slog.New(slog.DiscardHandler)

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func TestRegisterResolve(t *testing.T) {
	c := NewContainer(nil)
	if err := Register[greeter](c, english{}); err != nil {
		t.Fatal(err)
	}
	g, err := Resolve[greeter](c)
	if err != nil {
		t.Fatal(err)
	}
	if g.Greet() != "hello" {
		t.Errorf("greet = %q", g.Greet())
	}
	if err := Register[greeter](c, english{}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate register err = %v", err)
	}
}

func TestResolveMissing(t *testing.T) {
	c := NewContainer(nil)
	if _, err := Resolve[greeter](c); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("err = %v, want ErrNotRegistered", err)
	}
}

func TestProvideRunsOnce(t *testing.T) {
	c := NewContainer(nil)
	built := 0
	Provide[greeter](c, func() (greeter, error) {
		built++
		return english{}, nil
	})
	if Has[greeter](c) {
		t.Fatal("fallback must not register eagerly")
	}
	for i := 0; i < 3; i++ {
		if _, err := Resolve[greeter](c); err != nil {
			t.Fatal(err)
		}
	}
	if built != 1 {
		t.Errorf("factory ran %d times, want 1", built)
	}
	if !Has[greeter](c) {
		t.Error("fallback result not registered")
	}
}

func TestProvideIgnoredWhenRegistered(t *testing.T) {
	c := NewContainer(nil)
	Provide[greeter](c, func() (greeter, error) {
		t.Fatal("fallback should not run")
		return nil, nil
	})
	Register[greeter](c, english{})
	MustResolve[greeter](c)
}

type fakeService struct {
	name    string
	deps    []string
	log     *[]string
	initErr error
	stopErr error
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }
func (f *fakeService) Init(context.Context) error {
	*f.log = append(*f.log, "init:"+f.name)
	return f.initErr
}
func (f *fakeService) Start(context.Context) error { *f.log = append(*f.log, "start:"+f.name); return nil }
func (f *fakeService) Stop() error                 { *f.log = append(*f.log, "stop:"+f.name); return f.stopErr }

func TestHubOrdersByDependency(t *testing.T) {
	var log []string
	h := NewHub(quiet)
	h.Register(&fakeService{name: "telemetry", deps: []string{"store"}, log: &log})
	h.Register(&fakeService{name: "store", log: &log})
	h.Register(&fakeService{name: "scheduler", deps: []string{"telemetry", "store"}, log: &log})

	ctx := context.Background()
	if err := h.InitAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.StopAll(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"init:store", "init:telemetry", "init:scheduler",
		"start:store", "start:telemetry", "start:scheduler",
		"stop:scheduler", "stop:telemetry", "stop:store",
	}
	if !slices.Equal(log, want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
}

func TestHubInitRollback(t *testing.T) {
	var log []string
	h := NewHub(quiet)
	h.Register(&fakeService{name: "a", log: &log})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, log: &log, initErr: errors.New("no device")})

	if err := h.InitAll(context.Background()); err == nil {
		t.Fatal("expected init failure")
	}
	if log[len(log)-1] != "stop:a" {
		t.Errorf("rollback missing, log = %v", log)
	}
	if err := h.StopAll(); err != nil || log[len(log)-1] != "stop:a" || len(log) != 3 {
		t.Errorf("stop after rollback should be empty, log = %v", log)
	}
}

func TestHubStopJoinsErrors(t *testing.T) {
	var log []string
	h := NewHub(quiet)
	boom := errors.New("flush failed")
	h.Register(&fakeService{name: "store", log: &log, stopErr: boom})
	h.Register(&Func{ID: "snapshot", Needs: []string{"store"}})

	ctx := context.Background()
	if err := h.InitAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.StopAll(); !errors.Is(err, boom) {
		t.Errorf("StopAll = %v, want the store error", err)
	}
}

func TestHubDependencyErrors(t *testing.T) {
	var log []string
	h := NewHub(quiet)
	h.Register(&fakeService{name: "a", deps: []string{"b"}, log: &log})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, log: &log})
	if err := h.InitAll(context.Background()); !errors.Is(err, ErrCircularDependency) {
		t.Errorf("cycle err = %v", err)
	}

	lone := NewHub(quiet)
	lone.Register(&fakeService{name: "a", deps: []string{"ghost"}, log: &log})
	if _, err := lone.Order(); !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("missing dependency err = %v", err)
	}
	if err := lone.Register(&fakeService{name: "a", log: &log}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate err = %v", err)
	}
}
