// Package autocomplete implements debounced place search for the pickup and
// dropoff inputs of the search screen.
package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/geocoding"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
)

// DefaultDelay is the quiet period before a query is sent.
const DefaultDelay = 500 * time.Millisecond

var (
	// ErrClosed is returned by operations on a closed field.
	ErrClosed = errors.New("autocomplete: field closed")

	// ErrSearchFailed is the text shown for any failed search other than a
	// missing map token.
	ErrSearchFailed = errors.New("Error searching location. Please try again.")
)

// State is a point-in-time copy of a field.
type State struct {
	Name        string            `json:"name"`
	Text        string            `json:"text"`
	Selected    *place.Candidate  `json:"selected,omitempty"`
	Suggestions []place.Candidate `json:"suggestions"`
	Searching   bool              `json:"searching"`
	Error       string            `json:"error,omitempty"`
	Generation  uint64            `json:"generation"`
}

// HasError reports whether the last search failed.
func (s State) HasError() bool { return s.Error != "" }

// Options configures a Field. Zero values get defaults.
type Options struct {
	Delay    time.Duration
	Clock    Clock
	Logger   *zap.Logger
	Metrics  *metrics.Collector
	Listener func(State)
}

// Field is one debounced search input. Every text change bumps a generation
// counter; a search result is applied only if its generation is still current
// and no selection has been made since it was issued.
type Field struct {
	name     string
	searcher geocoding.Searcher
	delay    time.Duration
	clock    Clock
	logger   *zap.Logger
	metrics  *metrics.Collector
	listener func(State)

	mu          sync.Mutex
	text        string
	selected    *place.Candidate
	suggestions []place.Candidate
	searching   bool
	err         error
	gen         uint64
	timer       Timer
	cancel      context.CancelFunc
	closed      bool
}

// NewField creates an empty field named name ("pickup", "dropoff").
func NewField(name string, searcher geocoding.Searcher, opts Options) *Field {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Field{
		name:     name,
		searcher: searcher,
		delay:    opts.Delay,
		clock:    opts.Clock,
		logger:   opts.Logger.With(zap.String("field", name)),
		metrics:  opts.Metrics,
		listener: opts.Listener,
	}
}

// SetText records an edit. It clears any explicit selection, cancels pending
// work and restarts the quiet-period timer. Empty text clears suggestions
// immediately without a query.
func (f *Field) SetText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	f.text = text
	f.selected = nil
	f.err = nil
	f.gen++
	f.stopLocked()

	if strings.TrimSpace(text) == "" {
		f.suggestions = nil
		f.notifyLocked()
		return
	}

	gen := f.gen
	f.timer = f.clock.AfterFunc(f.delay, func() { f.fire(gen) })
	f.notifyLocked()
}

// Select locks in suggestion i: its name becomes the text and the
// suggestion list is cleared. No query is issued until the next edit.
func (f *Field) Select(i int) (place.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return place.Candidate{}, ErrClosed
	}
	if i < 0 || i >= len(f.suggestions) {
		return place.Candidate{}, fmt.Errorf("suggestion %d out of range (have %d)", i, len(f.suggestions))
	}

	c := f.suggestions[i]
	f.applySelectionLocked(c)
	return c, nil
}

// SetSelected locks in a candidate chosen elsewhere (a deep link, a restored
// session).
func (f *Field) SetSelected(c place.Candidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.applySelectionLocked(c)
}

func (f *Field) applySelectionLocked(c place.Candidate) {
	f.selected = &c
	f.text = c.DisplayName
	f.suggestions = nil
	f.err = nil
	f.gen++
	f.stopLocked()
	f.notifyLocked()
}

// Close cancels any pending timer or request. Later results are ignored.
func (f *Field) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.stopLocked()
}

// Snapshot returns the current state.
func (f *Field) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Value returns the text to geocode on the confirm screen: the selected
// display name, else the raw text.
func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected != nil {
		return f.selected.DisplayName
	}
	return strings.TrimSpace(f.text)
}

func (f *Field) fire(gen uint64) {
	f.mu.Lock()
	if f.closed || gen != f.gen || f.selected != nil {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.timer = nil
	f.searching = true
	query := f.text
	f.notifyLocked()
	f.mu.Unlock()

	results, err := f.searcher.Search(ctx, query)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen || f.selected != nil {
		f.metrics.StaleDiscarded("autocomplete")
		f.logger.Debug("discarding stale suggestions", zap.String("query", query))
		return
	}
	f.cancel = nil
	f.searching = false
	if err != nil {
		f.logger.Warn("place search failed", zap.String("query", query), zap.Error(err))
		f.err = err
		f.suggestions = nil
	} else {
		f.suggestions = results
	}
	f.notifyLocked()
}

func (f *Field) stopLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.searching = false
}

func (f *Field) snapshotLocked() State {
	s := State{
		Name:        f.name,
		Text:        f.text,
		Suggestions: append([]place.Candidate{}, f.suggestions...),
		Searching:   f.searching,
		Generation:  f.gen,
	}
	if f.selected != nil {
		c := *f.selected
		s.Selected = &c
	}
	if f.err != nil {
		s.Error = displayError(f.err)
	}
	return s
}

func displayError(err error) string {
	if errors.Is(err, geocoding.ErrMissingToken) {
		return err.Error()
	}
	return ErrSearchFailed.Error()
}

// notifyLocked runs the listener with the lock held so listeners observe
// states in order. Listeners must not call back into the field.
func (f *Field) notifyLocked() {
	if f.listener != nil {
		f.listener(f.snapshotLocked())
	}
}
