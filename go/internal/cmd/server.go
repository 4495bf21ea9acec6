package main

import (
	"github.com/flyscore/flyscore/go/internal/overlay"
)

func setupServer(s *Services) *overlay.Server {
	deps := overlay.Deps{
		Loop:           s.Loop,
		App:            s.App,
		Hotkeys:        s.Hotkeys,
		Keys:           s.Keys,
		Panel:          s.Panel,
		Bridge:         s.Bridge,
		Hub:            s.Hub,
		SwitchDataRoot: s.switchDataRoot,
	}
	return overlay.NewServer(overlay.Addr(s.Config.BindAddress, s.Port()), deps)
}
