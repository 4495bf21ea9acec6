// Package controller runs the single goroutine that owns the scoreboard
// state. Everything that touches the state (dock edits, hotkeys, HTTP
// actions, host notifications) is handed to it as a closure.
package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

const queueSize = 64

var (
	// ErrStopped is returned when the loop is no longer accepting work.
	ErrStopped = errors.New("controller loop stopped")
	// ErrPanicked is returned by Do when the task panicked.
	ErrPanicked = errors.New("controller task panicked")
)

// Loop serializes work onto one goroutine.
type Loop struct {
	work chan func()
	done chan struct{}
	once sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		work: make(chan func(), queueSize),
		done: make(chan struct{}),
	}
}

// Run processes posted work until ctx is cancelled. Work still queued at
// shutdown is drained first so accepted mutations are not lost.
func (l *Loop) Run(ctx context.Context) {
	log.Info().Msg("controller loop started")
	defer l.once.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			l.drain()
			log.Info().Msg("controller loop stopped")
			return
		case fn := <-l.work:
			l.exec(fn)
		}
	}
}

func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.work:
			l.exec(fn)
		default:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("controller task panicked")
		}
	}()
	fn()
}

// Post queues fn without waiting for it.
func (l *Loop) Post(fn func()) {
	select {
	case l.work <- fn:
	case <-l.done:
		log.Warn().Msg("dropping task posted after controller loop stopped")
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		err := ErrPanicked
		defer func() { result <- err }()
		err = fn()
	}

	select {
	case l.work <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
