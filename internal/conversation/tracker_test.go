package conversation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/itinerary"
	"tripbuddy/internal/types"
)

type step struct {
	payload itinerary.Payload
	err     error
	block   bool
}

type fakeBackend struct {
	mu      sync.Mutex
	steps   []step
	calls   int
	seen    [][]ai.Message
	started chan struct{}
}

func (f *fakeBackend) Generate(ctx context.Context, msgs []ai.Message) (itinerary.Payload, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.seen = append(f.seen, msgs)
	var s step
	if i < len(f.steps) {
		s = f.steps[i]
	}
	f.mu.Unlock()
	if s.block {
		if f.started != nil {
			f.started <- struct{}{}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.payload, s.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePersister struct {
	created []string
	updated []types.ID
	saved   *itinerary.TripItinerary
	err     error
}

func (p *fakePersister) CreateTrip(_ context.Context, tripID string, d *itinerary.TripItinerary) (types.ID, error) {
	if p.err != nil {
		return "", p.err
	}
	p.created = append(p.created, tripID)
	p.saved = d
	return "rec-1", nil
}

func (p *fakePersister) UpdateTrip(_ context.Context, id types.ID, d *itinerary.TripItinerary) (types.ID, error) {
	if p.err != nil {
		return "", p.err
	}
	p.updated = append(p.updated, id)
	p.saved = d
	return id, nil
}

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("request failed with status %d", int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

// gaveUp is a 502 the server marked as not worth retrying.
type gaveUp struct{}

func (gaveUp) Error() string   { return "All model fallbacks failed" }
func (gaveUp) StatusCode() int { return http.StatusBadGateway }
func (gaveUp) Terminal() bool  { return true }

// clock advances past the debounce window on every read.
type clock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func newTracker(b Backend, p Persister, opts Options) *Tracker {
	opts.Backoff = time.Millisecond
	tr := NewTracker(b, p, zerolog.Nop(), opts)
	c := &clock{cur: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr.now = c.now
	return tr
}

func question(resp string, ui itinerary.UITag) itinerary.Payload {
	return itinerary.QuestionPayload{Resp: itinerary.Text(resp), UI: ui}
}

func finalTrip(days int) *itinerary.TripItinerary {
	t := &itinerary.TripItinerary{Resp: "Here is your plan", UI: itinerary.UIFinal, TripTitle: "Tokyo"}
	for i := 1; i <= days; i++ {
		t.Itinerary = append(t.Itinerary, itinerary.ItineraryDay{
			Day: itinerary.DayNumber(i), Title: "t", Morning: "m", Afternoon: "a", Evening: "e",
			Photos: []itinerary.Photo{{Reference: "x"}},
		})
	}
	return t
}

func TestDesiredDays(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"Travel dates: from 2025-03-01 to 2025-03-05", 5},
		{"travel dates: from 2025-03-01 to 2025-03-01", 1},
		{"Travel dates: from 2025-03-05 to 2025-03-01", 1},
		{"planning a 7-day trip", 7},
		{"10 days in Rome", 10},
		{"for 3 day", 3},
		{"somewhere warm", 0},
		{"0 days", 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DesiredDays(c.in), c.in)
	}
}

func TestWithLengthHint(t *testing.T) {
	msg := "Travel dates: from 2025-03-01 to 2025-03-04"
	out := WithLengthHint(msg, 4)
	assert.Equal(t, msg+"\n\nIMPORTANT: This is a 4-day trip. Please generate a complete 4-day itinerary with all details for each day.", out)
	assert.Equal(t, "5 days in Rome", WithLengthHint("5 days in Rome", 5))
	assert.Equal(t, msg, WithLengthHint(msg, 0))
}

func TestWidgetFor(t *testing.T) {
	w := WidgetFor(itinerary.UIBudget)
	require.NotNil(t, w)
	assert.Len(t, w.Options, 3)
	assert.Equal(t, "Cheap", w.Options[0].Label)

	w = WidgetFor(itinerary.UIGroupSize)
	require.NotNil(t, w)
	assert.Equal(t, []string{"Solo", "Couple", "Family", "Friends"},
		[]string{w.Options[0].Label, w.Options[1].Label, w.Options[2].Label, w.Options[3].Label})

	w = WidgetFor(itinerary.UITravelInterest)
	require.NotNil(t, w)
	assert.True(t, w.MultiSelect)
	assert.Len(t, w.Options, 11)

	assert.NotEmpty(t, WidgetFor(itinerary.UIDateRange).Format)
	assert.Nil(t, WidgetFor(itinerary.UINone))
	assert.Nil(t, WidgetFor(itinerary.UIFinal))
	assert.Equal(t, "Interests: Food, Beach", InterestsMessage([]string{"Food", "Beach"}))
}

func TestSendQuestionReturnsWidget(t *testing.T) {
	b := &fakeBackend{steps: []step{{payload: question("What's your budget?", itinerary.UIBudget)}}}
	tr := newTracker(b, nil, Options{})

	out, err := tr.Send(context.Background(), "Trip to Tokyo")
	require.NoError(t, err)
	require.NotNil(t, out.Reply)
	assert.Equal(t, "What's your budget?", out.Reply.Content)
	require.NotNil(t, out.Widget)
	assert.Equal(t, itinerary.UIBudget, out.Widget.Tag)
	assert.Equal(t, StateIdle, tr.State())
	assert.Len(t, tr.History(), 2)
}

func TestSendDropsEmptyAndDebounced(t *testing.T) {
	b := &fakeBackend{steps: []step{{payload: question("ok", "")}, {payload: question("ok", "")}}}
	tr := NewTracker(b, nil, zerolog.Nop(), Options{})
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	out, err := tr.Send(context.Background(), "   ")
	require.NoError(t, err)
	assert.True(t, out.Dropped)

	_, err = tr.Send(context.Background(), "hello")
	require.NoError(t, err)
	out, err = tr.Send(context.Background(), "hello again")
	require.NoError(t, err)
	assert.True(t, out.Dropped)
	assert.Equal(t, 1, b.callCount())
}

func TestSendFinalReconcilesAndPersists(t *testing.T) {
	b := &fakeBackend{steps: []step{{payload: finalTrip(3)}}}
	p := &fakePersister{}
	tr := newTracker(b, p, Options{})

	out, err := tr.Send(context.Background(), "Travel dates: from 2025-05-01 to 2025-05-05")
	require.NoError(t, err)
	require.NotNil(t, out.Trip)
	assert.Len(t, out.Trip.Itinerary, 5)
	for i, d := range out.Trip.Itinerary {
		assert.EqualValues(t, i+1, d.Day)
	}
	require.NotNil(t, out.Trip.Budget)
	assert.Len(t, out.Trip.Budget.Breakdown, 5)
	assert.Equal(t, types.ID("rec-1"), out.RecordID)

	require.Len(t, p.created, 1)
	_, convErr := strconv.ParseInt(p.created[0], 10, 64)
	assert.NoError(t, convErr)
	require.NotNil(t, p.saved)
	assert.Empty(t, p.saved.Itinerary[0].Photos)
	assert.NotEmpty(t, out.Trip.Itinerary[0].Photos)

	seen := b.seen[0]
	assert.Contains(t, seen[len(seen)-1].Content, "IMPORTANT: This is a 5-day trip.")
	assert.Equal(t, StateIdle, tr.State())
}

func TestSendFinalTruncatesAndUpdatesWhenEditing(t *testing.T) {
	b := &fakeBackend{steps: []step{{payload: finalTrip(6)}}}
	p := &fakePersister{}
	tr := newTracker(b, p, Options{EditTripID: "trip-9"})

	out, err := tr.Send(context.Background(), "make it a 4 day trip")
	require.NoError(t, err)
	assert.Len(t, out.Trip.Itinerary, 4)
	assert.Equal(t, []types.ID{"trip-9"}, p.updated)
	assert.Empty(t, p.created)
}

func TestSendPersistFailureIsNotFatal(t *testing.T) {
	b := &fakeBackend{steps: []step{{payload: finalTrip(2)}}}
	tr := newTracker(b, &fakePersister{err: errors.New("db down")}, Options{})

	out, err := tr.Send(context.Background(), "go")
	require.NoError(t, err)
	assert.NotNil(t, out.Trip)
	assert.Empty(t, out.RecordID)
	assert.Nil(t, out.Err)
}

func TestSendRetriesTransientFailure(t *testing.T) {
	b := &fakeBackend{steps: []step{
		{err: statusErr(502)},
		{payload: question("Where to?", "")},
	}}
	tr := newTracker(b, nil, Options{})

	out, err := tr.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, 2, b.callCount())
	assert.Equal(t, "Where to?", out.Reply.Content)
}

func TestSendDoesNotRetryTerminalFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", statusErr(401), "Sorry, I encountered an error: request failed with status 401. Please try again."},
		{"missing key", errors.New("Missing OPENROUTER_API_KEY"), MsgConfig},
		{"invalid request", errors.New("Invalid request: messages required"), "Sorry, I encountered an error: Invalid request: messages required. Please try again."},
		{"server gave up", gaveUp{}, MsgUnavailable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := &fakeBackend{steps: []step{{err: c.err}, {payload: question("unused", "")}}}
			tr := newTracker(b, nil, Options{})

			out, err := tr.Send(context.Background(), "hi")
			require.NoError(t, err)
			assert.Equal(t, 1, b.callCount())
			require.NotNil(t, out.Reply)
			assert.Equal(t, c.want, out.Reply.Content)
			assert.ErrorIs(t, out.Err, c.err)
		})
	}
}

func TestFailedTurnsAreNotSentToModel(t *testing.T) {
	b := &fakeBackend{steps: []step{
		{err: errors.New("All model fallbacks failed")},
		{err: errors.New("All model fallbacks failed")},
		{payload: question("Where to?", "")},
	}}
	tr := newTracker(b, nil, Options{})

	out, err := tr.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, MsgUnavailable, out.Reply.Content)

	_, err = tr.Send(context.Background(), "hi again")
	require.NoError(t, err)

	last := b.seen[len(b.seen)-1]
	require.Len(t, last, 2)
	assert.Equal(t, "hi", last[0].Content)
	assert.Equal(t, "hi again", last[1].Content)
	assert.Len(t, tr.History(), 4)
}

func TestNewSendCancelsInFlight(t *testing.T) {
	b := &fakeBackend{
		steps:   []step{{block: true}, {payload: question("second", "")}},
		started: make(chan struct{}, 1),
	}
	tr := newTracker(b, nil, Options{})

	first := make(chan Outcome, 1)
	go func() {
		out, _ := tr.Send(context.Background(), "first")
		first <- out
	}()
	<-b.started

	out, err := tr.Send(context.Background(), "second message")
	require.NoError(t, err)
	assert.Equal(t, "second", out.Reply.Content)

	select {
	case o := <-first:
		assert.True(t, o.Canceled)
		assert.Nil(t, o.Reply)
	case <-time.After(2 * time.Second):
		t.Fatal("first send did not return")
	}
}

func TestFriendlyMessage(t *testing.T) {
	assert.Equal(t, MsgTimeout, FriendlyMessage(context.DeadlineExceeded))
	assert.Equal(t, MsgTimeout, FriendlyMessage(errors.New("request timeout after 1m0s")))
	assert.Equal(t, MsgNetwork, FriendlyMessage(errors.New("failed to fetch")))
	assert.Equal(t, MsgConfig, FriendlyMessage(ai.ErrMissingCredentials))
	assert.Equal(t, MsgUnavailable, FriendlyMessage(errors.New("All model fallbacks failed")))
	assert.Equal(t, "Sorry, I encountered an error: boom. Please try again.", FriendlyMessage(errors.New("boom")))
	assert.Empty(t, FriendlyMessage(nil))
}
