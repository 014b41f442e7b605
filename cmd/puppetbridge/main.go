package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/puppetbridge/server/internal/colony"
	"github.com/puppetbridge/server/internal/command"
	"github.com/puppetbridge/server/internal/config"
	"github.com/puppetbridge/server/internal/core/event"
	coresys "github.com/puppetbridge/server/internal/core/system"
	"github.com/puppetbridge/server/internal/data"
	"github.com/puppetbridge/server/internal/opqueue"
	"github.com/puppetbridge/server/internal/project"
	"github.com/puppetbridge/server/internal/protocol"
	"github.com/puppetbridge/server/internal/scripting"
	"github.com/puppetbridge/server/internal/state"
	"github.com/puppetbridge/server/internal/system"
	"github.com/puppetbridge/server/internal/transport"
	"github.com/puppetbridge/server/internal/viewer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name, version string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Printf("\033[36;1m  │\033[0m   %-39s \033[36;1m│\033[0m\n", name+"  v"+version)
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main bridge logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/bridge.toml"
	if p := os.Getenv("PUPPETBRIDGE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.Version)

	// 3. Load data tables
	printSection("Data tables")
	workTypes, err := data.LoadWorkTypeTable("data/work_types.yaml")
	if err != nil {
		return fmt.Errorf("work types: %w", err)
	}
	printStat("Work types", workTypes.Count())

	assignments, err := data.LoadAssignmentTable("data/assignments.yaml")
	if err != nil {
		return fmt.Errorf("assignments: %w", err)
	}
	printStat("Timetable assignments", assignments.Count())

	hostility, err := data.LoadHostilityTable("data/hostility.yaml")
	if err != nil {
		return fmt.Errorf("hostility modes: %w", err)
	}
	printStat("Hostility modes", hostility.Count())
	fmt.Println()

	// 4. Lua scripting engine
	printSection("Scripting")
	scripts, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()
	printOK("Lua engine ready")
	fmt.Println()

	// 5. Simulation and persisted state
	printSection("State")
	bus := event.NewBus()
	game := colony.New(colony.Deps{
		Log:         log,
		Bus:         bus,
		Scripts:     scripts,
		WorkTypes:   workTypes,
		Assignments: assignments,
		Hostility:   hostility,
	})
	printStat("Colonists", len(game.Roster()))

	viewers, err := viewer.NewRegistry(cfg.Saves.ViewersFile, log)
	if err != nil {
		return fmt.Errorf("viewers: %w", err)
	}
	printStat("Known viewers", viewers.Count())

	store := state.NewStore(cfg.Saves.StateFile, log)
	if err := store.Load(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	store.Reconcile(game)
	printStat("Puppeteers", len(store.All()))
	fmt.Println()

	// 6. Relay session, queue, projector, command handlers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := transport.Dial(ctx, cfg.Relay, log)
	defer session.Close()

	queue := opqueue.New(map[opqueue.Kind]int{
		opqueue.KindPortrait:  cfg.Queue.PortraitPerTick,
		opqueue.KindSelect:    cfg.Queue.SelectPerTick,
		opqueue.KindSocial:    cfg.Queue.SocialPerTick,
		opqueue.KindGear:      cfg.Queue.GearPerTick,
		opqueue.KindInventory: cfg.Queue.InventoryPerTick,
		opqueue.KindRenderMap: cfg.Queue.RenderMapPerTick,
	}, log)

	projector := project.New(project.Deps{
		Log:         log,
		Game:        game,
		Store:       store,
		Viewers:     viewers,
		Out:         session,
		Queue:       queue,
		WorkTypes:   workTypes,
		Assignments: assignments,
		GameName:    cfg.Server.Name,
		GameVersion: cfg.Server.Version,
	})

	phase := protocol.PhaseHandshake
	deps := &command.Deps{
		Log:         log,
		Cfg:         cfg,
		Game:        game,
		Store:       store,
		Viewers:     viewers,
		Queue:       queue,
		Out:         session,
		Project:     projector,
		WorkTypes:   workTypes,
		Assignments: assignments,
		MenuTokens:  command.NewTokens(),
		GizmoTokens: command.NewTokens(),
		Phase:       &phase,
	}

	registry := protocol.NewRegistry(log)
	command.RegisterAll(registry, deps)

	// 7. Event subscriptions: keep viewers in step with the simulation
	subscribe(bus, deps)

	// 8. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(session, registry, deps))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewSimSystem(game))
	runner.Register(system.NewQueueSystem(queue))
	runner.Register(system.NewPushSystem(cfg.Earn, viewers, projector))
	runner.Register(system.NewOutputSystem(session))
	runner.Register(system.NewPersistSystem(game, store, viewers))

	// 9. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Relay.TickRate)
	defer ticker.Stop()

	printSection("Bridge ready")
	printReady(fmt.Sprintf("Relay %s", cfg.Relay.URL))
	printReady(fmt.Sprintf("Game loop started (tick: %s)", cfg.Relay.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Relay.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			store.Save(game)
			viewers.Save()
			log.Info("bridge stopped")
			return nil
		}
	}
}

// subscribe wires simulation events to the outbound side. Events are
// delivered one tick after they fire, from the event system.
func subscribe(bus *event.Bus, d *command.Deps) {
	event.Subscribe(bus, func(ev event.RosterChanged) {
		if ev.Available {
			d.Project.SendAvailability(ev.ActorID, true)
			return
		}
		d.DropActor(ev.ActorID)
	})
	event.Subscribe(bus, func(ev event.ActorRenamed) {
		d.Project.SendColonists()
	})
	event.Subscribe(bus, func(ev event.PrioritiesChanged) {
		for _, pp := range d.Store.Connected() {
			d.Project.SendOutgoingState(pp)
		}
	})
	event.Subscribe(bus, func(ev event.SchedulesChanged) {
		for _, pp := range d.Store.Connected() {
			d.Project.SendOutgoingState(pp)
		}
	})
	event.Subscribe(bus, func(ev event.ZonesChanged) {
		for _, pp := range d.Store.Connected() {
			d.Project.SendOutgoingState(pp)
		}
	})
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
