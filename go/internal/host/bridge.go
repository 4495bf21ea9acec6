package host

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// Poster hands work to the controller loop.
type Poster interface {
	Post(fn func())
}

// BridgeConfig configures the overlay web source.
type BridgeConfig struct {
	SourceName string
	Width      int
	Height     int
}

// Bridge keeps the dock's list of web sources current and points the
// overlay source at the local overlay. All methods except Start's callback
// run on the controller loop.
type Bridge struct {
	host Host
	loop Poster
	cfg  BridgeConfig

	sources     []string
	selected    string
	unsubscribe func()
	onChange    func(sources []string, selected string)
}

func NewBridge(h Host, loop Poster, cfg BridgeConfig) *Bridge {
	if h == nil {
		h = Nop{}
	}
	return &Bridge{host: h, loop: loop, cfg: cfg}
}

// OnChange registers fn to run after the source list is refreshed.
func (b *Bridge) OnChange(fn func(sources []string, selected string)) {
	b.onChange = fn
}

// Start subscribes to source notifications. Each notification queues a
// refresh on the controller loop. An unavailable host is logged and ignored.
func (b *Bridge) Start() {
	unsubscribe, err := b.host.SubscribeSources(func(ev SourceEvent) {
		if ev.TypeID != "" && ev.TypeID != WebSourceType {
			return
		}
		log.Debug().Str("source", ev.Name).Stringer("event", ev.Kind).Msg("web source changed")
		b.loop.Post(func() { b.Refresh() })
	})
	if err != nil {
		log.Warn().Err(err).Msg("source notifications unavailable")
		return
	}
	b.unsubscribe = unsubscribe
}

// Stop removes the source subscription.
func (b *Bridge) Stop() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// Refresh re-reads the web sources, sorted case-insensitively without
// duplicates. The current selection is kept when it still exists.
func (b *Bridge) Refresh() []string {
	names, err := b.host.SourcesByType(WebSourceType)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list web sources")
		names = nil
	}

	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			sorted = append(sorted, n)
		}
	}
	slices.SortFunc(sorted, func(a, c string) int {
		if r := strings.Compare(strings.ToLower(a), strings.ToLower(c)); r != 0 {
			return r
		}
		return strings.Compare(a, c)
	})
	sorted = slices.Compact(sorted)

	b.sources = sorted
	if !slices.Contains(sorted, b.selected) {
		b.selected = ""
		if slices.Contains(sorted, b.cfg.SourceName) {
			b.selected = b.cfg.SourceName
		} else if len(sorted) > 0 {
			b.selected = sorted[0]
		}
	}

	if b.onChange != nil {
		b.onChange(slices.Clone(b.sources), b.selected)
	}
	return slices.Clone(b.sources)
}

// Sources returns the last refreshed list.
func (b *Bridge) Sources() []string {
	return slices.Clone(b.sources)
}

// Selected returns the selected web source.
func (b *Bridge) Selected() string {
	return b.selected
}

// Select chooses the web source PointOverlay updates.
func (b *Bridge) Select(name string) {
	b.selected = name
}

// PointOverlay creates or updates the selected web source in the current
// scene so it renders target. A target naming an existing file is used as
// a local file, anything else as a URL.
func (b *Bridge) PointOverlay(target string) error {
	name := b.selected
	if name == "" {
		name = b.cfg.SourceName
	}
	src := WebSource{Name: name, Width: b.cfg.Width, Height: b.cfg.Height}
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		src.LocalFile = filepath.Clean(target)
	} else {
		src.URL = target
	}

	scene, err := b.host.CurrentScene()
	if err != nil {
		log.Warn().Err(err).Msg("no current scene for overlay source")
		return fmt.Errorf("failed to get current scene: %w", err)
	}
	defer scene.Release()

	created, err := b.host.EnsureWebSource(scene, src)
	if err != nil {
		log.Warn().Err(err).Str("source", name).Msg("failed to update overlay source")
		return fmt.Errorf("failed to update overlay source: %w", err)
	}

	location := src.URL
	if src.LocalFile != "" {
		location = src.LocalFile
	}
	verb := "updated"
	if created {
		verb = "created"
	}
	log.Info().Str("source", name).Str("scene", scene.Name()).Str("target", location).Msg(verb + " overlay source")
	return nil
}
