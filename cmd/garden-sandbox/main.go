// Command garden-sandbox runs the gene garden in the terminal with audio cues
//
// Keys: space pause, m mute, s save snapshot, l load snapshot, c add creature, q or Esc quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/genegarden/config"
	"github.com/lixenwraith/genegarden/core"
	"github.com/lixenwraith/genegarden/cue"
	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/garden"
	"github.com/lixenwraith/genegarden/status"
	"github.com/lixenwraith/genegarden/storage"
	"github.com/lixenwraith/genegarden/tick"
)

const (
	snapshotID  = "sandbox"
	redrawEvery = 33 * time.Millisecond
)

type sandbox struct {
	screen tcell.Screen
	world  *garden.World
	sched  *tick.Scheduler
	store  storage.Store
	player *cue.Player
	reg    *status.Registry
	logger *slog.Logger
	doc    *config.Document
	log    *os.File

	message string
}

func main() {
	configPath := flag.String("config", "", "config file overlaid on the embedded defaults")
	templates := flag.String("templates", "", "comma separated template names, all when empty")
	seed := flag.Int64("seed", 0, "world seed override")
	mute := flag.Bool("mute", false, "start without audio")
	flag.Parse()

	doc, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		doc.Engine.Seed = *seed
	}
	var names []string
	if *templates != "" {
		names = strings.Split(*templates, ",")
	}

	sb, err := newSandbox(doc, names, *mute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "garden-sandbox: %v\n", err)
		os.Exit(1)
	}
	defer sb.cleanup()
	sb.run()
}

// openLog sends logs to the configured file since the terminal owns stdout
func openLog(doc *config.Document) (*slog.Logger, *os.File) {
	f, err := os.OpenFile(doc.Engine.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.DiscardHandler), nil
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: doc.Engine.Log.SlogLevel()})), f
}

func newSandbox(doc *config.Document, names []string, mute bool) (*sandbox, error) {
	logger, logFile := openLog(doc)
	slog.SetDefault(logger)

	store, err := storage.NewStore(doc.Engine.Storage.Kind, doc.Engine.Storage.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	bus := event.NewBus(logger)
	recorder := status.NewRecorder(bus, status.NewRegistry())
	world, err := doc.NewWorld(logger, names, garden.WithBus(bus))
	if err != nil {
		return nil, err
	}

	player := cue.NewPlayer(doc.Engine.Audio.Volume, logger)
	if doc.Engine.Audio.Enabled && !mute {
		if err := player.Initialize(); err != nil {
			logger.Warn("audio unavailable", "error", err)
		}
	}
	cue.Bind(bus, player)

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	core.SetCrashHook(screen.Fini)

	sb := &sandbox{
		screen: screen,
		world:  world,
		store:  store,
		player: player,
		reg:    recorder.Registry(),
		logger: logger,
		doc:    doc,
		log:    logFile,
	}
	sb.sched = tick.NewScheduler(
		tick.NewPausableClock(tick.MonotonicTime{}),
		doc.Engine.TickInterval(),
		func() { world.Step() },
		tick.WithFrame(doc.Engine.FrameInterval(), world.Frame),
		tick.WithSchedulerLogger(logger),
	)
	return sb, nil
}

func (sb *sandbox) run() {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	core.Go(func() {
		for {
			ev := sb.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	})
	defer close(quit)

	sb.sched.Start()
	redraw := time.NewTicker(redrawEvery)
	defer redraw.Stop()

	for {
		select {
		case ev := <-events:
			if !sb.handle(ev) {
				return
			}
		case <-redraw.C:
			sb.world.RunSafe(sb.draw)
		}
	}
}

func (sb *sandbox) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			if sb.sched.Paused() {
				sb.sched.Resume()
				sb.message = "resumed"
			} else {
				sb.sched.Pause()
				sb.message = "paused"
			}
		case 'm':
			sb.player.SetMuted(!sb.player.Muted())
			sb.message = fmt.Sprintf("muted: %v", sb.player.Muted())
		case 's':
			var err error
			sb.world.RunSafe(func() { err = sb.world.Save(context.Background(), sb.store, snapshotID) })
			sb.message = result("saved", err)
		case 'l':
			var err error
			sb.world.RunSafe(func() { err = sb.world.Load(context.Background(), sb.store, snapshotID) })
			sb.message = result("loaded", err)
		case 'c':
			sb.world.Bus.Post(event.CreatureSpawnRequested{Species: "beetle", Count: 1})
			sb.message = "creature requested"
		}
	case *tcell.EventResize:
		sb.screen.Sync()
	}
	return true
}

func result(ok string, err error) string {
	if err != nil {
		return err.Error()
	}
	return ok
}

func (sb *sandbox) cleanup() {
	sb.sched.Stop()
	sb.player.Close()
	if err := storage.CloseIfSupported(sb.store); err != nil {
		sb.logger.Error("closing store failed", "error", err)
	}
	sb.screen.Fini()
	core.SetCrashHook(nil)
	if sb.log != nil {
		sb.log.Close()
	}
}
