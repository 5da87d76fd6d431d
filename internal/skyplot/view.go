package skyplot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

// ErrViewStopped is returned by ApplyConfiguration once Run has returned.
var ErrViewStopped = errors.New("view is not running")

// ConfigStore persists the view configuration.
type ConfigStore interface {
	// Load returns the stored configuration. On failure it returns the
	// defaults together with the error.
	Load() (ViewConfig, error)
	Save(cfg ViewConfig) error
}

// Frame is an immutable copy of everything a redraw needs.
type Frame struct {
	Seq      uint64
	Snapshot *gnss.Snapshot
	Fix      *gnss.LocationFix
	Config   ViewConfig
	Geometry Geometry
}

// Tier is the accuracy tier of the frame's fix.
func (f Frame) Tier() Tier {
	return Classify(f.Fix)
}

// RedrawFunc is called from the View's loop with each new frame. It must
// not block for long; hosts render in it or hand the frame off.
type RedrawFunc func(Frame)

type eventKind int

const (
	evStatus eventKind = iota
	evLocation
	evResize
	evConfig
	evStop
)

type event struct {
	kind     eventKind
	snapshot *gnss.Snapshot
	fix      *gnss.LocationFix
	geometry Geometry
	cfg      ViewConfig
	reply    chan error
}

// eventBuffer bounds how many updates can queue up between two redraws.
const eventBuffer = 64

// View owns the sky plot state. Feeds post replace-state events from any
// goroutine; Run applies them on a single goroutine and calls the redraw
// function once per burst of events.
type View struct {
	store  ConfigStore
	redraw RedrawFunc

	events chan event
	done   chan struct{}
	once   sync.Once // closes done

	// state and stopped are owned by Run while it runs; before Run starts
	// and once done is closed they are guarded by afterMu.
	state   Frame
	stopped bool
	started bool // set by Run under afterMu
	afterMu sync.Mutex

	cfgMu sync.RWMutex
	cfg   ViewConfig
}

// NewView loads the configuration from store once and returns a View that
// is not yet running. A nil store keeps the configuration in memory only.
func NewView(store ConfigStore, redraw RedrawFunc) *View {
	cfg := DefaultViewConfig()
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			log.Printf("skyplot: loading view config: %v (using defaults)", err)
		} else if err := loaded.Validate(); err != nil {
			log.Printf("skyplot: stored view config: %v (using defaults)", err)
		} else {
			cfg = loaded
		}
	}

	v := &View{
		store:  store,
		redraw: redraw,
		events: make(chan event, eventBuffer),
		done:   make(chan struct{}),
		cfg:    cfg,
	}
	v.state.Config = cfg
	return v
}

// Config returns the configuration currently applied.
func (v *View) Config() ViewConfig {
	v.cfgMu.RLock()
	defer v.cfgMu.RUnlock()
	return v.cfg
}

// NewStatus replaces the satellite snapshot. nil clears it.
func (v *View) NewStatus(snap *gnss.Snapshot) {
	v.post(event{kind: evStatus, snapshot: snap})
}

// NewLocation replaces the position fix. nil clears it.
func (v *View) NewLocation(fix *gnss.LocationFix) {
	v.post(event{kind: evLocation, fix: fix})
}

// Resize recomputes the geometry for a surface of width x height pixels.
func (v *View) Resize(width, height int) {
	v.post(event{kind: evResize, geometry: NewGeometry(width, height)})
}

// ApplyConfiguration validates cfg, applies it, saves it to the store and
// requests a redraw. An invalid cfg changes nothing. When saving fails the
// configuration stays applied and the save error is returned.
func (v *View) ApplyConfiguration(ctx context.Context, cfg ViewConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	select {
	case <-v.done:
		return ErrViewStopped
	default:
	}

	reply := make(chan error, 1)
	select {
	case v.events <- event{kind: evConfig, cfg: cfg, reply: reply}:
	case <-v.done:
		return ErrViewStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-v.done:
		// Run may have answered just before it returned
		v.afterMu.Lock()
		defer v.afterMu.Unlock()
		select {
		case err := <-reply:
			return err
		default:
			return ErrViewStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop clears both snapshot and fix and renders one final frame. Calling
// it again, before Run has started or after it has returned, is safe.
func (v *View) Stop() {
	if v.stopIdle() {
		return
	}

	select {
	case <-v.done:
	default:
		reply := make(chan error, 1)
		select {
		case v.events <- event{kind: evStop, reply: reply}:
			select {
			case <-reply:
				return
			case <-v.done:
			}
		case <-v.done:
		}
	}

	// Run is gone; a Stop it already consumed makes this a no-op
	v.afterMu.Lock()
	defer v.afterMu.Unlock()
	if v.apply(event{kind: evStop}) {
		v.draw()
	}
}

// stopIdle handles Stop when Run has not started: queued events are applied
// in order, then the stop itself. It reports whether it did so.
func (v *View) stopIdle() bool {
	v.afterMu.Lock()
	defer v.afterMu.Unlock()
	if v.started {
		return false
	}
	for pending := true; pending; {
		select {
		case ev := <-v.events:
			v.apply(ev)
		default:
			pending = false
		}
	}
	if v.apply(event{kind: evStop}) {
		v.draw()
	}
	return true
}

// post queues ev for Run. Updates posted after Run has returned are
// dropped.
func (v *View) post(ev event) {
	select {
	case v.events <- ev:
	case <-v.done:
	}
}

// Run consumes events until ctx is done. Events queued while a frame is
// drawn are applied together and produce a single redraw.
func (v *View) Run(ctx context.Context) error {
	defer v.once.Do(func() { close(v.done) })

	v.afterMu.Lock()
	v.started = true
	v.afterMu.Unlock()

	for {
		select {
		case <-ctx.Done():
			v.afterMu.Lock()
			v.once.Do(func() { close(v.done) })
			v.drainStop()
			v.afterMu.Unlock()
			return ctx.Err()
		case ev := <-v.events:
			dirty := v.apply(ev)
			for pending := true; pending; {
				select {
				case ev := <-v.events:
					if v.apply(ev) {
						dirty = true
					}
				default:
					pending = false
				}
			}
			if dirty {
				v.draw()
			}
		}
	}
}

// drainStop honours a Stop that was queued but not yet consumed when the
// context ended, so teardown always gets its final frame.
func (v *View) drainStop() {
	for {
		select {
		case ev := <-v.events:
			switch {
			case ev.kind == evStop:
				if v.apply(ev) {
					v.draw()
				}
			case ev.reply != nil:
				ev.reply <- ErrViewStopped
			}
		default:
			return
		}
	}
}

// apply changes the state for one event and reports whether a redraw is
// needed.
func (v *View) apply(ev event) bool {
	switch ev.kind {
	case evStatus:
		v.state.Snapshot = ev.snapshot
		v.stopped = false
	case evLocation:
		v.state.Fix = ev.fix
		v.stopped = false
	case evResize:
		v.state.Geometry = ev.geometry
	case evConfig:
		v.state.Config = ev.cfg
		v.cfgMu.Lock()
		v.cfg = ev.cfg
		v.cfgMu.Unlock()

		var err error
		if v.store != nil {
			if serr := v.store.Save(ev.cfg); serr != nil {
				err = fmt.Errorf("saving view config: %w", serr)
			}
		}
		ev.reply <- err
	case evStop:
		dirty := !v.stopped || v.state.Snapshot != nil || v.state.Fix != nil
		v.state.Snapshot = nil
		v.state.Fix = nil
		v.stopped = true
		if ev.reply != nil {
			ev.reply <- nil
		}
		return dirty
	}
	return true
}

func (v *View) draw() {
	if v.state.Geometry.Empty() || v.redraw == nil {
		return
	}
	v.state.Seq++
	v.redraw(v.state)
}
