// Package storage persists templates, runtime states and world snapshots
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/sequence"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrNotInitialized = errors.New("store is not initialized")
)

// Store defines persistence operations for gene engine records
type Store interface {
	Init(ctx context.Context) error
	SaveTemplate(ctx context.Context, tpl TemplateRecord) error
	GetTemplate(ctx context.Context, name string) (TemplateRecord, bool, error)
	ListTemplates(ctx context.Context) ([]string, error)
	SaveState(ctx context.Context, st StateRecord) error
	GetState(ctx context.Context, id string) (StateRecord, bool, error)
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	GetSnapshot(ctx context.Context, id string) (Snapshot, bool, error)
	ListSnapshots(ctx context.Context) ([]string, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// LoadState reads a state and runs the second load phase: bind every instance, migrate, clamp capacity
func LoadState(ctx context.Context, store Store, id string, r gene.Resolver, logger *slog.Logger) (*sequence.State, sequence.BindReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rec, ok, err := store.GetState(ctx, id)
	if err != nil {
		return nil, sequence.BindReport{}, fmt.Errorf("load state %s: %w", id, err)
	}
	if !ok {
		return nil, sequence.BindReport{}, fmt.Errorf("load state %s: %w", id, ErrNotFound)
	}
	st, report := BindState(rec, r, logger)
	return st, report, nil
}

// BindState rebuilds a state from rec and resolves it against r
func BindState(rec StateRecord, r gene.Resolver, logger *slog.Logger) (*sequence.State, sequence.BindReport) {
	st := rec.State()
	report := st.Bind(r)
	st.EnforceCapacity(r, logger)
	if len(report.Fallbacks) > 0 {
		logger.Warn("state loaded with missing genes", "state", st.ID, "missing", report.Fallbacks)
	}
	logger.Debug("state bound", "state", st.ID, "resolved", report.Resolved, "migrated", report.Migrated)
	return st, report
}

// LoadTemplate reads a template record and resolves it into a validated template
func LoadTemplate(ctx context.Context, store Store, name string, r gene.Resolver) (*sequence.Template, error) {
	rec, ok, err := store.GetTemplate(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("load template %s: %w", name, ErrNotFound)
	}
	return rec.Template(r)
}
