// Package interrupt carries a process-wide stop request to long-running loops.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Token is set once when the user asks the session to stop.
// Loops poll Load between iterations or select on Done.
type Token struct {
	flag atomic.Bool
	once sync.Once
	done chan struct{}
}

// New returns an unset token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Set marks the token. Repeated calls are no-ops.
func (t *Token) Set() {
	t.once.Do(func() {
		t.flag.Store(true)
		close(t.done)
	})
}

// Load reports whether Set has been called.
func (t *Token) Load() bool {
	return t.flag.Load()
}

// Done is closed by Set.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Install sets the token on SIGINT or SIGTERM and returns a function
// that stops signal delivery. Call at most once per session.
func (t *Token) Install() (stop func()) {
	return t.install(syscall.SIGINT, syscall.SIGTERM)
}

func (t *Token) install(sigs ...os.Signal) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	quit := make(chan struct{})
	go func() {
		select {
		case <-ch:
			t.Set()
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}
}

// Context returns a context cancelled when the token is set or parent ends.
func (t *Token) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-t.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
