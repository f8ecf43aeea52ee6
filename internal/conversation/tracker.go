// README: Client-side turn loop: debounce, cancellation, retry, day-count reconciliation and persistence.
package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/itinerary"
	"tripbuddy/internal/retry"
	"tripbuddy/internal/types"
)

const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultMaxAttempts = 2
	DefaultBackoff     = time.Second
	backoffJitter      = 0.5
)

var errMissingResp = errors.New("missing response text from API")

type State int

const (
	StateIdle State = iota
	StateSending
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateReconciling:
		return "reconciling"
	default:
		return "idle"
	}
}

// Turn is one transcript entry. Failed turns are shown but never sent to the model.
type Turn struct {
	Role    ai.Role         `json:"role"`
	Content string          `json:"content"`
	UI      itinerary.UITag `json:"ui,omitempty"`
	Failed  bool            `json:"-"`
}

// Backend produces the next assistant payload for a conversation.
type Backend interface {
	Generate(ctx context.Context, messages []ai.Message) (itinerary.Payload, error)
}

// Persister stores finished itineraries.
type Persister interface {
	CreateTrip(ctx context.Context, tripID string, detail *itinerary.TripItinerary) (types.ID, error)
	UpdateTrip(ctx context.Context, id types.ID, detail *itinerary.TripItinerary) (types.ID, error)
}

// Outcome reports what a Send did.
type Outcome struct {
	// Dropped is set for empty input, debounced sends and duplicates of the pending request.
	Dropped bool
	// Canceled is set when a newer send or the caller cancelled this one.
	Canceled bool
	Reply    *Turn
	Widget   *Widget
	Trip     *itinerary.TripItinerary
	RecordID types.ID
	// Err is the underlying failure behind a friendly Reply.
	Err error
}

type Options struct {
	Debounce    time.Duration
	MaxAttempts int
	Backoff     time.Duration
	// EditTripID switches persistence from create to update.
	EditTripID types.ID
}

// Tracker owns one chat session.
type Tracker struct {
	backend   Backend
	persister Persister
	log       zerolog.Logger
	opts      Options
	now       func() time.Time

	mu          sync.Mutex
	state       State
	history     []Turn
	desiredDays int
	lastSendAt  time.Time
	pending     string
	cancel      context.CancelFunc
	seq         uint64
}

// NewTracker builds a session. persister may be nil when trips are not saved.
func NewTracker(backend Backend, persister Persister, log zerolog.Logger, opts Options) *Tracker {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	return &Tracker{backend: backend, persister: persister, log: log, opts: opts, now: time.Now}
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) DesiredDays() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.desiredDays
}

// History returns a copy of the full transcript.
func (t *Tracker) History() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Turn(nil), t.history...)
}

// Send appends a user turn and drives it to completion.
func (t *Tracker) Send(ctx context.Context, text string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Dropped: true}, nil
	}

	t.mu.Lock()
	now := t.now()
	if !t.lastSendAt.IsZero() && now.Sub(t.lastSendAt) < t.opts.Debounce {
		t.mu.Unlock()
		return Outcome{Dropped: true}, nil
	}
	t.lastSendAt = now
	if t.pending == text {
		t.mu.Unlock()
		return Outcome{Dropped: true}, nil
	}

	if days := DesiredDays(text); days > 0 {
		t.desiredDays = days
	}
	if t.cancel != nil {
		t.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	t.seq++
	seq := t.seq
	t.cancel = cancel
	t.pending = text
	t.state = StateSending
	t.history = append(t.history, Turn{Role: ai.RoleUser, Content: WithLengthHint(text, t.desiredDays)})
	msgs := t.modelMessages()
	t.mu.Unlock()
	defer cancel()

	payload, err := retry.Do(reqCtx, retry.Policy{
		MaxAttempts: t.opts.MaxAttempts,
		BackOff:     retry.Exponential(t.opts.Backoff, backoffJitter),
		Retryable:   Retryable,
	}, func(ctx context.Context, attempt int) (itinerary.Payload, error) {
		p, err := t.backend.Generate(ctx, msgs)
		if err != nil {
			t.log.Warn().Err(err).Int("attempt", attempt).Msg("turn attempt failed")
			return nil, err
		}
		if strings.TrimSpace(p.Response()) == "" {
			return nil, errMissingResp
		}
		return p, nil
	})

	t.mu.Lock()
	if seq != t.seq {
		// A newer send owns the session now.
		t.mu.Unlock()
		return Outcome{Canceled: true}, nil
	}
	t.pending = ""
	t.cancel = nil
	if err != nil && errors.Is(reqCtx.Err(), context.Canceled) {
		t.state = StateIdle
		t.mu.Unlock()
		return Outcome{Canceled: true}, nil
	}
	if err != nil {
		reply := Turn{Role: ai.RoleAssistant, Content: FriendlyMessage(err), Failed: true}
		t.history = append(t.history, reply)
		t.state = StateIdle
		t.mu.Unlock()
		t.log.Error().Err(err).Msg("chat turn failed")
		return Outcome{Reply: &reply, Err: err}, nil
	}

	trip, final := payload.(*itinerary.TripItinerary)
	ui := itinerary.UIFinal
	if q, ok := payload.(itinerary.QuestionPayload); ok {
		ui = q.UI
	}
	reply := Turn{Role: ai.RoleAssistant, Content: payload.Response(), UI: ui}
	t.history = append(t.history, reply)
	if !final {
		t.state = StateIdle
		t.mu.Unlock()
		return Outcome{Reply: &reply, Widget: WidgetFor(ui)}, nil
	}
	t.state = StateReconciling
	desired := t.desiredDays
	t.mu.Unlock()

	out := Outcome{Reply: &reply, Trip: trip}
	itinerary.Reconcile(trip, desired)
	out.RecordID = t.persist(ctx, trip)

	t.mu.Lock()
	if seq == t.seq {
		t.state = StateIdle
	}
	t.mu.Unlock()
	return out, nil
}

// persist saves the compacted trip. Failures are logged only.
func (t *Tracker) persist(ctx context.Context, trip *itinerary.TripItinerary) types.ID {
	if t.persister == nil {
		return ""
	}
	compact := itinerary.Compact(trip)
	var (
		id  types.ID
		err error
	)
	if t.opts.EditTripID != "" {
		id, err = t.persister.UpdateTrip(ctx, t.opts.EditTripID, compact)
	} else {
		id, err = t.persister.CreateTrip(ctx, strconv.FormatInt(t.now().UnixMilli(), 10), compact)
	}
	if err != nil {
		t.log.Error().Err(err).Int("days", len(compact.Itinerary)).Msg("failed to save trip")
		return ""
	}
	t.log.Info().Str("id", id.String()).Int("days", len(compact.Itinerary)).Msg("trip saved")
	return id
}

func (t *Tracker) modelMessages() []ai.Message {
	out := make([]ai.Message, 0, len(t.history))
	for _, turn := range t.history {
		if turn.Failed {
			continue
		}
		out = append(out, ai.Message{Role: turn.Role, Content: turn.Content})
	}
	return out
}
