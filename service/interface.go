package service

import "context"

// Service is long-lived infrastructure outside the tick path: stores, listeners, schedulers
// Init acquires resources, Start launches background work, Stop releases both and may be called twice
type Service interface {
	Name() string
	Dependencies() []string
	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop() error
}

// Func adapts closures to Service; nil hooks are no-ops
type Func struct {
	ID      string
	Needs   []string
	OnInit  func(ctx context.Context) error
	OnStart func(ctx context.Context) error
	OnStop  func() error
}

func (f *Func) Name() string           { return f.ID }
func (f *Func) Dependencies() []string { return f.Needs }

func (f *Func) Init(ctx context.Context) error {
	if f.OnInit == nil {
		return nil
	}
	return f.OnInit(ctx)
}

func (f *Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f *Func) Stop() error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop()
}
