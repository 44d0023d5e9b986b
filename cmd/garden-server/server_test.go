package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/status"
	"github.com/lixenwraith/genegarden/storage"
	"github.com/lixenwraith/genegarden/telemetry"
)

func TestRunHeadlessSavesSnapshot(t *testing.T) {
	db := filepath.Join(t.TempDir(), "garden.db")
	opts := options{storeKind: "sqlite", dbPath: db, addr: "-", ticks: 12, save: "after-12"}

	var out bytes.Buffer
	if err := run(context.Background(), opts, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary struct {
		Tick    int            `json:"tick"`
		Plants  int            `json:"plants"`
		Metrics map[string]any `json:"metrics"`
	}
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("summary: %v\n%s", err, out.String())
	}
	if summary.Tick != 12 || summary.Plants != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if executed, _ := summary.Metrics["gene.executed"].(float64); executed == 0 {
		t.Error("no gene executions recorded")
	}

	store := storage.NewSQLiteStore(db)
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	snap, ok, err := store.GetSnapshot(context.Background(), "after-12")
	if err != nil || !ok || snap.Tick != 12 {
		t.Fatalf("snapshot ok=%v err=%v", ok, err)
	}
	names, err := store.ListTemplates(context.Background())
	if err != nil || len(names) != 3 {
		t.Errorf("templates = %v, %v", names, err)
	}

	resumed := options{storeKind: "sqlite", dbPath: db, addr: "-", ticks: 3, load: "after-12", templates: []string{"mist"}}
	out.Reset()
	if err := run(context.Background(), resumed, &out, io.Discard); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Tick != 15 || summary.Plants != 3 {
		t.Errorf("resumed summary tick %d plants %d", summary.Tick, summary.Plants)
	}
}

func TestRunRejectsBadOverrides(t *testing.T) {
	if err := run(context.Background(), options{storeKind: "postgres", addr: "-", ticks: 1}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid store kind")
	}
}

func TestRunRealtimeUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	opts := options{storeKind: "memory", addr: "127.0.0.1:0"}

	var out bytes.Buffer
	if err := run(ctx, opts, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary struct {
		Plants int `json:"plants"`
	}
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil || summary.Plants != 3 {
		t.Errorf("summary = %+v, %v", summary, err)
	}
}

func TestCommandEndpointsPostToBus(t *testing.T) {
	quiet := slog.New(slog.DiscardHandler)
	bus := event.NewBus(quiet)
	var spawns []event.CreatureSpawnRequested
	var removals []event.PlantRemovalRequested
	event.Subscribe(bus, func(e event.CreatureSpawnRequested) { spawns = append(spawns, e) })
	event.Subscribe(bus, func(e event.PlantRemovalRequested) { removals = append(removals, e) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	hub := telemetry.NewHub(telemetry.WithLogger(quiet))
	srv := serve(ln, hub, bus, status.NewRegistry(), quiet)
	t.Cleanup(func() { srv.Close() })
	base := "http://" + ln.Addr().String()

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/creatures?species=moth&count=2", http.StatusAccepted},
		{http.MethodPost, "/creatures?count=zero", http.StatusBadRequest},
		{http.MethodDelete, "/plants/p-1", http.StatusAccepted},
		{http.MethodGet, "/creatures", http.StatusMethodNotAllowed},
	} {
		req, _ := http.NewRequest(tc.method, base+tc.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, resp.StatusCode, tc.want)
		}
	}

	if len(spawns) != 0 || len(removals) != 0 {
		t.Fatal("commands dispatched before Drain")
	}
	if n := bus.Drain(); n != 2 {
		t.Fatalf("drained %d, want 2", n)
	}
	if len(spawns) != 1 || spawns[0].Species != "moth" || spawns[0].Count != 2 {
		t.Errorf("spawns = %+v", spawns)
	}
	if len(removals) != 1 || removals[0].Plant != "p-1" {
		t.Errorf("removals = %+v", removals)
	}
}
