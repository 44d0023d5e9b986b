package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/lixenwraith/genegarden/config"
	"github.com/lixenwraith/genegarden/core"
	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/garden"
	"github.com/lixenwraith/genegarden/service"
	"github.com/lixenwraith/genegarden/status"
	"github.com/lixenwraith/genegarden/storage"
	"github.com/lixenwraith/genegarden/telemetry"
	"github.com/lixenwraith/genegarden/tick"
)

type options struct {
	configPath string
	storeKind  string
	dbPath     string
	addr       string
	seed       int64
	ticks      int
	load       string
	save       string
	templates  []string
	logLevel   string
}

// apply folds command line overrides into the loaded document
func (o options) apply(doc *config.Document) {
	if o.storeKind != "" {
		doc.Engine.Storage.Kind = o.storeKind
	}
	if o.dbPath != "" {
		doc.Engine.Storage.Path = o.dbPath
	}
	switch o.addr {
	case "":
	case "-":
		doc.Engine.Telemetry.Addr = ""
	default:
		doc.Engine.Telemetry.Addr = o.addr
	}
	if o.seed != 0 {
		doc.Engine.Seed = o.seed
	}
	if o.logLevel != "" {
		doc.Engine.Log.Level = o.logLevel
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	doc, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(doc)
	if err := doc.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: doc.Engine.Log.SlogLevel()}))
	slog.SetDefault(logger)

	store, err := storage.NewStore(doc.Engine.Storage.Kind, doc.Engine.Storage.Path)
	if err != nil {
		return err
	}

	bus := event.NewBus(logger)
	recorder := status.NewRecorder(bus, status.NewRegistry())
	defer recorder.Close()

	w, err := doc.NewWorld(logger, opts.templates, garden.WithBus(bus))
	if err != nil {
		return err
	}

	services := service.NewHub(logger)
	services.Register(&service.Func{
		ID:     "store",
		OnInit: store.Init,
		OnStop: func() error { return storage.CloseIfSupported(store) },
	})
	services.Register(&service.Func{
		ID:    "snapshot",
		Needs: []string{"store"},
		OnInit: func(ctx context.Context) error {
			if err := persistTemplates(ctx, store, doc, w, opts.templates); err != nil {
				return err
			}
			if opts.load == "" {
				return nil
			}
			if err := w.Load(ctx, store, opts.load); err != nil {
				return fmt.Errorf("load snapshot %s: %w", opts.load, err)
			}
			logger.Info("snapshot restored", "snapshot", opts.load, "tick", w.Clock.Current())
			return nil
		},
		OnStop: func() error {
			if opts.save == "" {
				return nil
			}
			var saveErr error
			w.RunSafe(func() { saveErr = w.Save(context.WithoutCancel(ctx), store, opts.save) })
			if saveErr != nil {
				return fmt.Errorf("save snapshot %s: %w", opts.save, saveErr)
			}
			logger.Info("snapshot saved", "snapshot", opts.save, "tick", w.Clock.Current())
			return nil
		},
	})
	if addr := doc.Engine.Telemetry.Addr; addr != "" {
		services.Register(telemetryService(addr, doc.Engine.Telemetry.Buffer, bus, recorder.Registry(), logger))
	}
	if opts.ticks <= 0 {
		sched := tick.NewScheduler(
			tick.NewPausableClock(tick.MonotonicTime{}),
			doc.Engine.TickInterval(),
			func() { w.Step() },
			tick.WithFrame(doc.Engine.FrameInterval(), w.Frame),
			tick.WithSchedulerLogger(logger),
		)
		services.Register(&service.Func{
			ID:      "scheduler",
			Needs:   []string{"snapshot"},
			OnStart: func(context.Context) error { sched.Start(); return nil },
			OnStop:  func() error { sched.Stop(); return nil },
		})
	}

	if err := services.InitAll(ctx); err != nil {
		return err
	}
	if err := services.StartAll(ctx); err != nil {
		return err
	}

	if opts.ticks > 0 {
		for range opts.ticks {
			if ctx.Err() != nil {
				break
			}
			w.Step()
			w.Frame(doc.Engine.TickInterval())
		}
	} else {
		logger.Info("garden running", "tick", doc.Engine.TickInterval(), "plants", len(w.Plants()))
		<-ctx.Done()
	}

	if err := services.StopAll(); err != nil {
		return err
	}
	return report(stdout, w, recorder.Registry())
}

// telemetryService binds the websocket hub to bus and serves it with the status endpoints
func telemetryService(addr string, buffer int, bus *event.Bus, reg *status.Registry, logger *slog.Logger) service.Service {
	hub := telemetry.NewHub(telemetry.WithLogger(logger), telemetry.WithBuffer(buffer))
	var (
		ln  net.Listener
		srv *http.Server
	)
	return &service.Func{
		ID:    "telemetry",
		Needs: []string{"snapshot"},
		OnInit: func(context.Context) error {
			var err error
			if ln, err = net.Listen("tcp", addr); err != nil {
				return fmt.Errorf("telemetry listen: %w", err)
			}
			hub.Attach(bus)
			return nil
		},
		OnStart: func(context.Context) error {
			srv = serve(ln, hub, bus, reg, logger)
			return nil
		},
		OnStop: func() error {
			hub.Close()
			if srv == nil {
				return ln.Close()
			}
			return srv.Close()
		},
	}
}

// persistTemplates records the planted templates so later runs can load them by name
func persistTemplates(ctx context.Context, store storage.Store, doc *config.Document, w *garden.World, names []string) error {
	templates, err := doc.SelectTemplates(w.Library, names)
	if err != nil {
		return err
	}
	for _, tpl := range templates {
		if err := store.SaveTemplate(ctx, storage.NewTemplateRecord(tpl)); err != nil {
			return fmt.Errorf("save template %s: %w", tpl.Name, err)
		}
	}
	return nil
}

// serve exposes the hub on /ws next to /status, /healthz and the command endpoints and serves ln until closed
// Commands are posted to bus and applied on the next world step
func serve(ln net.Listener, hub *telemetry.Hub, bus *event.Bus, reg *status.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("POST /creatures", func(w http.ResponseWriter, r *http.Request) {
		req := event.CreatureSpawnRequested{Species: r.FormValue("species"), Count: 1}
		if req.Species == "" {
			req.Species = "beetle"
		}
		if n := r.FormValue("count"); n != "" {
			count, err := strconv.Atoi(n)
			if err != nil || count <= 0 {
				http.Error(w, "count must be a positive integer", http.StatusBadRequest)
				return
			}
			req.Count = count
		}
		bus.Post(req)
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("DELETE /plants/{id}", func(w http.ResponseWriter, r *http.Request) {
		bus.Post(event.PlantRemovalRequested{Plant: r.PathValue("id")})
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reg.Snapshot())
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	core.Go(func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("telemetry server stopped", "error", err)
		}
	})
	logger.Info("telemetry listening", "addr", ln.Addr().String())
	return srv
}

func report(out io.Writer, w *garden.World, reg *status.Registry) error {
	summary := struct {
		Tick      int            `json:"tick"`
		Plants    int            `json:"plants"`
		Creatures int            `json:"creatures"`
		Effects   int            `json:"effects"`
		Metrics   map[string]any `json:"metrics"`
	}{
		Tick:      w.Clock.Current(),
		Plants:    len(w.Plants()),
		Creatures: len(w.Creatures()),
		Effects:   w.Effects.Count(),
		Metrics:   reg.Snapshot(),
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
