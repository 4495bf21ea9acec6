package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flyscore/flyscore/go/internal/config"
	"github.com/flyscore/flyscore/go/internal/controller"
	"github.com/flyscore/flyscore/go/internal/dock"
	"github.com/flyscore/flyscore/go/internal/host"
	"github.com/flyscore/flyscore/go/internal/hotkeys"
	"github.com/flyscore/flyscore/go/internal/logo"
	"github.com/flyscore/flyscore/go/internal/overlay"
	"github.com/flyscore/flyscore/go/internal/scoreboard"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// dockTick is how often running timers are re-rendered in the dock.
const dockTick = 250 * time.Millisecond

// Services are the single-instance handles of a running controller. They
// are built once in main and torn down on shutdown.
type Services struct {
	Config     config.Config
	ConfigPath string

	Clock   clockwork.Clock
	Loop    *controller.Loop
	App     *scoreboard.App
	Hotkeys *hotkeys.Registry
	Keys    *hotkeys.Dispatcher
	Panel   *dock.Panel
	Bridge  *host.Bridge
	Hub     *overlay.Hub

	unsubscribe func()
}

func openResources(dir string) (scoreboard.StateRepository, scoreboard.LogoStager) {
	return scoreboard.NewRepository(dir), logo.NewStager(dir)
}

func newHost(cfg config.Config) host.Host {
	if cfg.Host == config.HostMemory {
		return host.NewMemory("Scene")
	}
	return nil
}

func setupServices(cfg config.Config, configPath string, clock clockwork.Clock) (*Services, error) {
	// Wire up dependency injection chain
	// Repository + logo stager → App → hotkeys, dock, host bridge, overlay hub
	app, err := scoreboard.NewApp(cfg.DataRoot, openResources, clock)
	if err != nil {
		if !errors.Is(err, scoreboard.ErrSaveFailed) {
			return nil, fmt.Errorf("failed to open resources: %w", err)
		}
		log.Warn().Err(err).Str("dir", cfg.DataRoot).Msg("continuing without persisted state")
	}

	s := &Services{
		Config:     cfg,
		ConfigPath: configPath,
		Clock:      clock,
		Loop:       controller.NewLoop(),
		App:        app,
		Panel:      dock.NewPanel(clock),
		Hub:        overlay.NewHub(overlay.DefaultHubConfig()),
	}

	s.Keys = hotkeys.NewDispatcher(s.fireAction)
	s.Hotkeys = hotkeys.NewRegistry(hotkeys.NewStore(cfg.DataRoot), s.Keys)
	s.Hotkeys.Refresh(app.State())
	s.Panel.Render(app.State())

	s.Bridge = host.NewBridge(newHost(cfg), s.Loop, host.BridgeConfig{
		SourceName: cfg.BrowserSource.Name,
		Width:      cfg.BrowserSource.Width,
		Height:     cfg.BrowserSource.Height,
	})
	s.Bridge.OnChange(func(sources []string, selected string) {
		s.Hub.Broadcast(overlay.NewSourcesChanged(sources, selected))
	})

	s.unsubscribe = app.Subscribe(s.onChange)
	return s, nil
}

// Start runs the loop and the hub and subscribes to the host.
func (s *Services) Start(ctx context.Context) {
	go s.Loop.Run(ctx)
	go s.Hub.Start(ctx)
	go s.tick(ctx)

	s.Loop.Post(func() {
		s.Bridge.Start()
		s.Bridge.Refresh()
	})
}

// Stop detaches from the host and the App.
func (s *Services) Stop(ctx context.Context) {
	err := s.Loop.Do(ctx, func() error {
		s.Bridge.Stop()
		s.unsubscribe()
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("controller stopped before cleanup")
	}
}

// Port is the configured port, falling back to server.port of plugin.json.
// Call it before Start.
func (s *Services) Port() int {
	if s.Config.Port != 0 {
		return s.Config.Port
	}
	return s.App.State().ServerPort
}

func (s *Services) fireAction(id string) {
	s.Loop.Post(func() {
		if err := hotkeys.Resolve(s.App, id); err != nil {
			log.Warn().Err(err).Str("action", id).Msg("hotkey action failed")
		}
	})
}

// onChange runs on the loop after every committed mutation. Hotkeys are
// rebuilt on every change since renames alter binding labels too.
func (s *Services) onChange(c scoreboard.Change) {
	s.Hotkeys.Refresh(c.State)
	if updates := s.Panel.Render(c.State); len(updates) > 0 {
		s.Hub.Broadcast(overlay.NewDockUpdate(updates))
	}
	s.Hub.Broadcast(overlay.NewStateChanged(c))
}

// switchDataRoot moves every per-directory resource to dir and records the
// choice in the config file. It runs on the loop.
func (s *Services) switchDataRoot(dir string) error {
	s.Hotkeys.SwitchStore(hotkeys.NewStore(dir))
	err := s.App.SwitchResources(dir)
	s.Config.DataRoot = dir
	if saveErr := config.SaveDataRoot(s.ConfigPath, dir); saveErr != nil {
		log.Warn().Err(saveErr).Msg("data root not saved to config")
	}
	return err
}

// tick re-renders the dock while a timer runs so the displayed time moves.
func (s *Services) tick(ctx context.Context) {
	ticker := s.Clock.NewTicker(dockTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Loop.Post(s.renderRunningTimers)
		}
	}
}

func (s *Services) renderRunningTimers() {
	st := s.App.State()
	for _, t := range st.Timers {
		if t.Running {
			if updates := s.Panel.Render(st); len(updates) > 0 {
				s.Hub.Broadcast(overlay.NewDockUpdate(updates))
			}
			return
		}
	}
}
