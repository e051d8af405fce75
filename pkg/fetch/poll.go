package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	fetcherrors "github.com/matzehuels/fetchflow/pkg/errors"
	"github.com/matzehuels/fetchflow/pkg/observability"
)

// PollOptions configures a Poller.
type PollOptions struct {
	FetchOptions

	Interval time.Duration // Time between cycles; must be positive
	Disabled bool          // Makes Start a no-op
}

// ticker is the subset of *time.Ticker the poll loop needs.
type ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

func newTimeTicker(d time.Duration) ticker { return timeTicker{time.NewTicker(d)} }

// Poller fetches a URL on a fixed interval and fans each outcome out to
// registered listeners.
//
// A Poller is Idle until Start and Polling until Stop or until the context
// given to Start is cancelled. Each session runs one goroutine: an immediate
// cycle, then one cycle per tick. Cycles never overlap; ticks that arrive
// while a cycle is still running are dropped.
//
// Listeners run on the poll goroutine in registration order. A listener may
// call Stop, in which case the remaining listeners of that cycle are skipped.
type Poller[T any] struct {
	id      string
	fetcher *Fetcher
	url     string
	opts    PollOptions

	newTicker func(time.Duration) ticker

	mu      sync.Mutex
	polling bool
	cancel  context.CancelFunc
	done    chan struct{}
	onData  []func(data T, fromCache bool)
	onError []func(err *fetcherrors.FetchError)
}

// NewPoller creates an idle Poller for url. A nil f uses Default().
func NewPoller[T any](f *Fetcher, url string, opts PollOptions) (*Poller[T], error) {
	if opts.Interval <= 0 {
		return nil, fetcherrors.Unknownf("poll interval must be positive, got %s", opts.Interval)
	}
	if f == nil {
		f = Default()
	}
	return &Poller[T]{
		id:        uuid.NewString(),
		fetcher:   f,
		url:       url,
		opts:      opts,
		newTicker: newTimeTicker,
	}, nil
}

// ID returns the poller's session identifier.
func (p *Poller[T]) ID() string { return p.id }

// OnData registers a listener for successful cycles.
func (p *Poller[T]) OnData(fn func(data T, fromCache bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onData = append(p.onData, fn)
}

// OnError registers a listener for failed cycles.
func (p *Poller[T]) OnError(fn func(err *fetcherrors.FetchError)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = append(p.onError, fn)
}

// IsPolling reports whether a session is active.
func (p *Poller[T]) IsPolling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polling
}

// Start begins polling. It is a no-op if the poller is already polling or
// was created with Disabled. Cancelling ctx ends the session like Stop.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	if p.polling || p.opts.Disabled {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.polling = true
	p.cancel = cancel
	p.done = done
	t := p.newTicker(p.opts.Interval)
	p.mu.Unlock()

	p.fetcher.logger.Info("polling started", "session", p.id, "url", p.url, "interval", p.opts.Interval)
	observability.Poll().OnPollStart(ctx, p.id, p.url)
	go p.loop(ctx, t, done)
}

// Stop ends the current session. It is idempotent and does not wait for an
// in-flight cycle; use Wait for that.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.polling {
		return
	}
	p.polling = false
	p.cancel()
}

// Wait blocks until the goroutine of the most recent session has exited.
func (p *Poller[T]) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *Poller[T]) loop(ctx context.Context, t ticker, done chan struct{}) {
	defer close(done)
	defer p.finish(ctx, done)
	defer t.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			if ctx.Err() != nil {
				return
			}
			p.cycle(ctx)
		}
	}
}

// finish marks the session idle when it ended through ctx rather than Stop.
func (p *Poller[T]) finish(ctx context.Context, done chan struct{}) {
	p.mu.Lock()
	if p.done == done && p.polling {
		p.polling = false
		p.cancel()
	}
	p.mu.Unlock()

	p.fetcher.logger.Info("polling stopped", "session", p.id, "url", p.url)
	observability.Poll().OnPollStop(context.WithoutCancel(ctx), p.id, p.url)
}

// cycle performs one fetch and emits its outcome unless the session ended
// while the fetch was in flight.
func (p *Poller[T]) cycle(ctx context.Context) {
	start := time.Now()
	res, err := FetchOnce[T](ctx, p.fetcher, p.url, p.opts.FetchOptions)
	if ctx.Err() != nil {
		return
	}
	observability.Poll().OnPollCycle(ctx, p.id, p.url, res.FromCache, time.Since(start), err)

	p.mu.Lock()
	onData := p.onData[:len(p.onData):len(p.onData)]
	onError := p.onError[:len(p.onError):len(p.onError)]
	p.mu.Unlock()

	if err != nil {
		fe := fetcherrors.As(fetcherrors.Wrap(err))
		for _, fn := range onError {
			if ctx.Err() != nil {
				return
			}
			fn(fe)
		}
		return
	}
	for _, fn := range onData {
		if ctx.Err() != nil {
			return
		}
		fn(res.Data, res.FromCache)
	}
}
