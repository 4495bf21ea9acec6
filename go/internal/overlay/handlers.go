package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/flyscore/flyscore/go/internal/controller"
	"github.com/flyscore/flyscore/go/internal/dock"
	"github.com/flyscore/flyscore/go/internal/host"
	"github.com/flyscore/flyscore/go/internal/hotkeys"
	"github.com/flyscore/flyscore/go/internal/logo"
	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/flyscore/flyscore/go/internal/scoreboard"
	"github.com/flyscore/flyscore/go/internal/timer"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/unrolled/render"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, hotkeys.ErrMalformedAction),
		errors.Is(err, scoreboard.ErrIndexOutOfRange),
		errors.Is(err, dock.ErrNoSuchControl),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, scoreboard.ErrReservedField),
		errors.Is(err, timer.ErrRunning),
		errors.Is(err, host.ErrNoScene):
		return http.StatusConflict
	case errors.Is(err, scoreboard.ErrInvalidDuration),
		errors.Is(err, timer.ErrInvalidMode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, host.ErrUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, controller.ErrStopped),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(rnd *render.Render, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("overlay request failed")
	}
	rnd.JSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func indexParam(r *http.Request) int {
	// The route pattern only admits digits.
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return -1
	}
	return i
}

func healthHandler(rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rnd.Text(w, http.StatusOK, "OK")
	}
}

// pluginFileHandler serves the persisted state file as written, read on the
// loop so it never observes a half-written save.
func pluginFileHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data []byte
		err := d.Loop.Do(r.Context(), func() error {
			var err error
			data, err = os.ReadFile(filepath.Join(d.App.Dir(), scoreboard.StateFileName))
			return err
		})
		w.Header().Set("Cache-Control", "no-store")
		if err != nil {
			http.Error(w, http.StatusText(statusFor(err)), statusFor(err))
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func staticHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var root string
		err := d.Loop.Do(r.Context(), func() error {
			root = filepath.Join(d.App.Dir(), logo.OverlayDir)
			return nil
		})
		if err != nil {
			http.Error(w, http.StatusText(statusFor(err)), statusFor(err))
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.FileServer(http.Dir(root)).ServeHTTP(w, r)
	}
}

func stateHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st *models.State
		err := d.Loop.Do(r.Context(), func() error {
			st = d.App.Snapshot()
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		rnd.JSON(w, http.StatusOK, st)
	}
}

func resetHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st *models.State
		err := d.Loop.Do(r.Context(), func() error {
			err := d.App.ResetAll()
			st = d.App.Snapshot()
			return err
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		rnd.JSON(w, http.StatusOK, st)
	}
}

type dataRootRequest struct {
	Dir string `json:"dir"`
}

func dataRootHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.SwitchDataRoot == nil {
			writeError(rnd, w, host.ErrUnavailable)
			return
		}
		var req dataRootRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(rnd, w, err)
			return
		}
		if req.Dir == "" {
			writeError(rnd, w, errors.Join(errBadRequest, errors.New("dir is required")))
			return
		}
		err := d.Loop.Do(r.Context(), func() error {
			return d.SwitchDataRoot(filepath.Clean(req.Dir))
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		rnd.JSON(w, http.StatusOK, dataRootRequest{Dir: filepath.Clean(req.Dir)})
	}
}

func hotkeysHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bindings := d.Hotkeys.Bindings()
		if bindings == nil {
			bindings = []hotkeys.Binding{}
		}
		rnd.JSON(w, http.StatusOK, bindings)
	}
}

type assignRequest struct {
	Sequence string `json:"sequence"`
}

func assignHotkeyHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(rnd, w, err)
			return
		}
		err := d.Loop.Do(r.Context(), func() error {
			return d.Hotkeys.Assign(chi.URLParam(r, "actionID"), req.Sequence)
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		rnd.JSON(w, http.StatusOK, d.Hotkeys.Bindings())
	}
}

type keyRequest struct {
	Sequence string `json:"sequence"`
	Down     bool   `json:"down"`
}

type keyResponse struct {
	Fired bool `json:"fired"`
}

// keyHandler feeds key edges from a remote key source into the dispatcher.
func keyHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req keyRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(rnd, w, err)
			return
		}
		if !req.Down {
			d.Keys.KeyUp(req.Sequence)
			rnd.JSON(w, http.StatusOK, keyResponse{})
			return
		}
		rnd.JSON(w, http.StatusOK, keyResponse{Fired: d.Keys.KeyDown(req.Sequence)})
	}
}

// actionHandler resolves an action id the way a hotkey press would.
func actionHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "actionID")
		if _, err := hotkeys.ParseAction(id); err != nil {
			writeError(rnd, w, err)
			return
		}
		var st *models.State
		err := d.Loop.Do(r.Context(), func() error {
			err := hotkeys.Resolve(d.App, id)
			st = d.App.Snapshot()
			return err
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		rnd.JSON(w, http.StatusOK, st)
	}
}

func dockHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var view []dock.Update
		err := d.Loop.Do(r.Context(), func() error {
			d.Panel.Render(d.App.State())
			view = d.Panel.View()
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		rnd.JSON(w, http.StatusOK, view)
	}
}

type editRequest struct {
	Control dock.ControlID `json:"control"`
	Editing bool           `json:"editing"`
}

func dockEditHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(rnd, w, err)
			return
		}
		err := d.Loop.Do(r.Context(), func() error {
			if _, ok := d.Panel.Value(req.Control); !ok {
				return dock.ErrNoSuchControl
			}
			if req.Editing {
				d.Panel.BeginEdit(req.Control)
			} else {
				d.Panel.EndEdit(req.Control)
			}
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type timerTextRequest struct {
	Text string `json:"text"`
}

type valueRequest struct {
	Value int `json:"value"`
}

// commitResponse returns the control's resulting display value even when
// the edit was rejected, so the dock can revert.
type commitResponse struct {
	Update dock.Update `json:"update"`
	Error  string      `json:"error,omitempty"`
}

func writeCommit(rnd *render.Render, w http.ResponseWriter, u dock.Update, err error) {
	if err != nil && u.Control == "" {
		writeError(rnd, w, err)
		return
	}
	if err != nil {
		rnd.JSON(w, statusFor(err), commitResponse{Update: u, Error: err.Error()})
		return
	}
	rnd.JSON(w, http.StatusOK, commitResponse{Update: u})
}

func dockTimerTextHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timerTextRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(rnd, w, err)
			return
		}
		var u dock.Update
		var commitErr error
		err := d.Loop.Do(r.Context(), func() error {
			u, commitErr = d.Panel.CommitTimerText(d.App, indexParam(r), req.Text)
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		writeCommit(rnd, w, u, commitErr)
	}
}

func dockFieldHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		side := models.Side(chi.URLParam(r, "side"))
		if side != models.SideHome && side != models.SideAway {
			writeError(rnd, w, dock.ErrNoSuchControl)
			return
		}
		var req valueRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(rnd, w, err)
			return
		}
		var u dock.Update
		var commitErr error
		err := d.Loop.Do(r.Context(), func() error {
			u, commitErr = d.Panel.CommitFieldValue(d.App, indexParam(r), side, req.Value)
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		writeCommit(rnd, w, u, commitErr)
	}
}

func dockSingleHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req valueRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(rnd, w, err)
			return
		}
		var u dock.Update
		var commitErr error
		err := d.Loop.Do(r.Context(), func() error {
			u, commitErr = d.Panel.CommitSingleValue(d.App, indexParam(r), req.Value)
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		writeCommit(rnd, w, u, commitErr)
	}
}

type sourcesResponse struct {
	Sources  []string `json:"sources"`
	Selected string   `json:"selected"`
}

func sourcesHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp sourcesResponse
		err := d.Loop.Do(r.Context(), func() error {
			resp = sourcesResponse{Sources: d.Bridge.Sources(), Selected: d.Bridge.Selected()}
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		if resp.Sources == nil {
			resp.Sources = []string{}
		}
		rnd.JSON(w, http.StatusOK, resp)
	}
}

func refreshSourcesHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp sourcesResponse
		err := d.Loop.Do(r.Context(), func() error {
			resp = sourcesResponse{Sources: d.Bridge.Refresh(), Selected: d.Bridge.Selected()}
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		rnd.JSON(w, http.StatusOK, resp)
	}
}

type selectRequest struct {
	Name string `json:"name"`
}

func selectSourceHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(rnd, w, err)
			return
		}
		err := d.Loop.Do(r.Context(), func() error {
			d.Bridge.Select(req.Name)
			return nil
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type pointRequest struct {
	// Target is a URL or a local file; empty means the local overlay server.
	Target string `json:"target"`
}

func pointOverlayHandler(d Deps, rnd *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pointRequest
		if r.ContentLength != 0 {
			if err := decodeBody(r, &req); err != nil {
				writeError(rnd, w, err)
				return
			}
		}
		err := d.Loop.Do(r.Context(), func() error {
			target := req.Target
			if target == "" {
				target = URL(d.App.State().ServerPort)
			}
			return d.Bridge.PointOverlay(target)
		})
		if err != nil {
			writeError(rnd, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
