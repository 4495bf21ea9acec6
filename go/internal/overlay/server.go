// Package overlay serves the overlay docroot, the plugin.json contract and a
// small control API, and pushes change events to overlay pages over a
// websocket.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/flyscore/flyscore/go/internal/controller"
	"github.com/flyscore/flyscore/go/internal/dock"
	"github.com/flyscore/flyscore/go/internal/host"
	"github.com/flyscore/flyscore/go/internal/hotkeys"
	"github.com/flyscore/flyscore/go/internal/scoreboard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/unrolled/render"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Deps are the handles the server drives. App, Panel and Bridge are only
// touched from inside Loop.Do.
type Deps struct {
	Loop    *controller.Loop
	App     *scoreboard.App
	Hotkeys *hotkeys.Registry
	Keys    *hotkeys.Dispatcher
	Panel   *dock.Panel
	Bridge  *host.Bridge
	Hub     *Hub

	// SwitchDataRoot moves the controller to another resources directory.
	// It runs on the loop. Nil disables the endpoint.
	SwitchDataRoot func(dir string) error
}

type Server struct {
	server *http.Server
}

// NewServer builds the overlay server for addr (host:port).
func NewServer(addr string, deps Deps) *Server {
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	handler := c.Handler(getRouter(deps, render.New()))

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Addr joins the configured bind address and port.
func Addr(bind string, port int) string {
	return net.JoinHostPort(bind, strconv.Itoa(port))
}

// URL is the address a browser source uses to reach the overlay.
func URL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/", port)
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// an error.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("overlay server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("overlay server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func getRouter(d Deps, rnd *render.Render) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(rnd))
	r.Get("/ws", d.Hub.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))

		r.Get("/plugin.json", pluginFileHandler(d))

		r.Route("/api", func(r chi.Router) {
			r.Get("/state", stateHandler(d, rnd))
			r.Post("/reset", resetHandler(d, rnd))
			r.Put("/data-root", dataRootHandler(d, rnd))

			r.Get("/hotkeys", hotkeysHandler(d, rnd))
			r.Put("/hotkeys/{actionID}", assignHotkeyHandler(d, rnd))
			r.Post("/keys", keyHandler(d, rnd))
			r.Post("/actions/{actionID}", actionHandler(d, rnd))

			r.Route("/dock", func(r chi.Router) {
				r.Get("/", dockHandler(d, rnd))
				r.Post("/edit", dockEditHandler(d, rnd))
				r.Put("/timers/{index:\\d+}/time", dockTimerTextHandler(d, rnd))
				r.Put("/fields/{index:\\d+}/{side}", dockFieldHandler(d, rnd))
				r.Put("/singles/{index:\\d+}", dockSingleHandler(d, rnd))
			})

			r.Route("/host", func(r chi.Router) {
				r.Get("/sources", sourcesHandler(d, rnd))
				r.Post("/sources/refresh", refreshSourcesHandler(d, rnd))
				r.Put("/sources/selected", selectSourceHandler(d, rnd))
				r.Post("/point", pointOverlayHandler(d, rnd))
			})
		})

		r.Handle("/*", staticHandler(d))
	})

	return r
}

// requestLogger logs each request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("overlay request")
	})
}
