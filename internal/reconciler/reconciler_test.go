package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/cache"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/notification"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/remote"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memKV is an in-memory cache.KV for tests.
type memKV struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newMemKV() *memKV {
	return &memKV{entries: make(map[string]string)}
}

func (m *memKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.sets++
	return nil
}

func (m *memKV) SetMany(entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.entries[k] = v
	}
	m.sets++
	return nil
}

func (m *memKV) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memKV) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// fakeFetcher scripts remote answers per tracking id.
type fakeFetcher struct {
	mu      sync.Mutex
	answers map[string]*remote.Status
	err     error
	calls   int
}

func (f *fakeFetcher) FetchStatus(_ context.Context, trackingID string) (*remote.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if st, ok := f.answers[trackingID]; ok {
		return st, nil
	}
	return nil, remote.ErrNotFound
}

// recordingNotifier captures dispatched notifications.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *recordingNotifier) Notify(trackingID string, status models.SubmissionStatus, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, trackingID+":"+string(status))
	return nil
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

type fixture struct {
	store    *store.Store
	kv       *memKV
	fetcher  *fakeFetcher
	sink     *recordingNotifier
	rec      *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()

	st := store.New(logger)
	kv := newMemKV()
	fetcher := &fakeFetcher{answers: make(map[string]*remote.Status)}
	sink := &recordingNotifier{}

	svc := notification.NewService(notification.Preferences{InApp: true}, logger)
	svc.Register(notification.ChannelInApp, sink)

	rec := New(st, kv, fetcher, svc, Config{
		UserID:       "user-1",
		PollInterval: time.Hour, // ticks driven manually
		FetchTimeout: time.Second,
	}, logger)

	return &fixture{store: st, kv: kv, fetcher: fetcher, sink: sink, rec: rec}
}

func (f *fixture) createSubmission(t *testing.T) *models.Submission {
	t.Helper()
	sub, err := f.store.Create("name_change", "Name Change Affidavit", nil)
	require.NoError(t, err)
	return sub
}

func TestRunTick_RemoteWins(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubmission(t)

	f.fetcher.answers[sub.ID] = &remote.Status{Status: models.StatusUnderReview, Message: "Assigned to a reviewer"}

	changed := f.rec.RunTick(context.Background())
	assert.Equal(t, 1, changed)

	got := f.store.Get(sub.ID)
	assert.Equal(t, models.StatusUnderReview, got.Status)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "Assigned to a reviewer", got.Events[1].Message)

	assert.Equal(t, []string{sub.ID + ":under_review"}, f.sink.all())
	assert.ElementsMatch(t, []string{notification.ChannelInApp}, got.NotificationsSent)
}

func TestRunTick_NoChangeNoEventNoWrite(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubmission(t)

	f.fetcher.answers[sub.ID] = &remote.Status{Status: models.StatusSubmitted}

	assert.Equal(t, 0, f.rec.RunTick(context.Background()))
	assert.Len(t, f.store.Get(sub.ID).Events, 1)
	assert.Zero(t, f.kv.writeCount(), "no cache write when nothing changed")
	assert.Empty(t, f.sink.all())
}

func TestRunTick_FallbackToCachedAdminUpdate(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubmission(t)
	f.fetcher.err = errors.New("connection timed out")

	require.NoError(t, cache.AppendStatusUpdate(f.kv, zap.NewNop(), models.StatusUpdate{
		TrackingID: sub.ID,
		Status:     models.StatusApproved,
		Message:    "Approved by registrar",
		Timestamp:  sub.UpdatedAt.Add(time.Minute),
	}))

	changed := f.rec.RunTick(context.Background())
	assert.Equal(t, 1, changed)

	got := f.store.Get(sub.ID)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "Approved by registrar", got.Events[1].Message)
	// Fallback events are tagged as locally sourced.
	assert.Equal(t, "Applied from locally cached admin update", got.Events[1].Details)
}

func TestRunTick_StaleAdminUpdateIgnored(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubmission(t)
	f.fetcher.err = errors.New("network is down")

	require.NoError(t, cache.AppendStatusUpdate(f.kv, zap.NewNop(), models.StatusUpdate{
		TrackingID: sub.ID,
		Status:     models.StatusRejected,
		Message:    "old decision",
		Timestamp:  sub.UpdatedAt.Add(-time.Minute), // not strictly newer
	}))

	assert.Equal(t, 0, f.rec.RunTick(context.Background()))
	assert.Equal(t, models.StatusSubmitted, f.store.Get(sub.ID).Status)
}

func TestRunTick_TransportFailureIsInvisible(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubmission(t)
	f.fetcher.err = errors.New("dial tcp: connection refused")

	assert.Equal(t, 0, f.rec.RunTick(context.Background()))

	got := f.store.Get(sub.ID)
	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.Len(t, got.Events, 1)
	assert.Empty(t, f.sink.all())
}

func TestRunTick_PersistsBatchOnChange(t *testing.T) {
	f := newFixture(t)
	a := f.createSubmission(t)
	b := f.createSubmission(t)

	f.fetcher.answers[a.ID] = &remote.Status{Status: models.StatusProcessing}
	f.fetcher.answers[b.ID] = &remote.Status{Status: models.StatusProcessing}

	assert.Equal(t, 2, f.rec.RunTick(context.Background()))
	// Both updates land in one batch write.
	assert.Equal(t, 1, f.kv.writeCount())

	raw, ok, err := f.kv.Get(cache.SubmissionsKey("user-1"))
	require.NoError(t, err)
	require.True(t, ok)

	var records []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	assert.Len(t, records, 2)
}

func TestRunTick_RemoteWinsOverNewerLocalUpdate(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubmission(t)

	// Remote answers, so the cached admin update must not be consulted
	// even though it is newer.
	f.fetcher.answers[sub.ID] = &remote.Status{Status: models.StatusProcessing}
	require.NoError(t, cache.AppendStatusUpdate(f.kv, zap.NewNop(), models.StatusUpdate{
		TrackingID: sub.ID,
		Status:     models.StatusApproved,
		Message:    "admin says approved",
		Timestamp:  time.Now().Add(time.Hour),
	}))

	f.rec.RunTick(context.Background())
	assert.Equal(t, models.StatusProcessing, f.store.Get(sub.ID).Status)
}

func TestRefreshOne(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubmission(t)
	f.fetcher.answers[sub.ID] = &remote.Status{Status: models.StatusCompleted, Message: "All done"}

	got := f.rec.RefreshOne(context.Background(), sub.ID)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusCompleted, got.Status)

	assert.Nil(t, f.rec.RefreshOne(context.Background(), "TRK00000000-ZZZZZZZZ"))
}

// barrierFetcher parks every fetch until release is closed, so tests
// can hold several fetches in flight against the same store snapshot.
type barrierFetcher struct {
	arrived chan struct{}
	release chan struct{}
	status  *remote.Status
}

func (f *barrierFetcher) FetchStatus(_ context.Context, _ string) (*remote.Status, error) {
	f.arrived <- struct{}{}
	<-f.release
	return f.status, nil
}

func TestConcurrentRefreshAndTick_ApplyOnce(t *testing.T) {
	logger := zap.NewNop()
	st := store.New(logger)
	kv := newMemKV()
	sink := &recordingNotifier{}

	svc := notification.NewService(notification.Preferences{InApp: true}, logger)
	svc.Register(notification.ChannelInApp, sink)

	fetcher := &barrierFetcher{
		arrived: make(chan struct{}, 2),
		release: make(chan struct{}),
		status:  &remote.Status{Status: models.StatusProcessing, Message: "Processing started"},
	}
	rec := New(st, kv, fetcher, svc, Config{
		UserID:       "user-1",
		PollInterval: time.Hour,
		FetchTimeout: time.Minute,
	}, logger)

	sub, err := st.Create("name_change", "Name Change Affidavit", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rec.RunTick(context.Background())
	}()
	go func() {
		defer wg.Done()
		rec.RefreshOne(context.Background(), sub.ID)
	}()

	// Both fetches are now in flight, each having observed the
	// pre-change status. Release them together.
	<-fetcher.arrived
	<-fetcher.arrived
	close(fetcher.release)
	wg.Wait()

	got := st.Get(sub.ID)
	assert.Equal(t, models.StatusProcessing, got.Status)
	require.Len(t, got.Events, 2, "the status change lands exactly once")
	assert.Equal(t, []string{sub.ID + ":processing"}, sink.all(), "one notification, not one per racer")
}

func TestRunTick_FallbackCarriesUpdateTimestamp(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubmission(t)
	f.fetcher.err = errors.New("connection timed out")

	issued := sub.UpdatedAt.Add(time.Minute)
	require.NoError(t, cache.AppendStatusUpdate(f.kv, zap.NewNop(), models.StatusUpdate{
		TrackingID: sub.ID,
		Status:     models.StatusApproved,
		Message:    "Approved by registrar",
		Timestamp:  issued,
	}))

	require.Equal(t, 1, f.rec.RunTick(context.Background()))

	// The submission advances to the update's own issue time, not the
	// apply-time clock, so the strictly-newer guard stays consistent.
	got := f.store.Get(sub.ID)
	assert.True(t, got.UpdatedAt.Equal(issued))
	assert.True(t, got.Events[1].Timestamp.Equal(issued))

	// The same update is not strictly newer anymore; the next offline
	// tick leaves the submission alone.
	assert.Equal(t, 0, f.rec.RunTick(context.Background()))
	assert.Len(t, f.store.Get(sub.ID).Events, 2)
}

func TestStartStop_NoTickAfterStop(t *testing.T) {
	f := newFixture(t)
	f.createSubmission(t)

	require.NoError(t, f.rec.Start(context.Background()))
	assert.Error(t, f.rec.Start(context.Background()), "double start")

	// The immediate startup tick runs; give it a moment.
	time.Sleep(50 * time.Millisecond)
	f.rec.Stop()
	f.rec.Stop() // idempotent

	calls := func() int {
		f.fetcher.mu.Lock()
		defer f.fetcher.mu.Unlock()
		return f.fetcher.calls
	}
	after := calls()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, calls(), "no fetches after Stop")
}
