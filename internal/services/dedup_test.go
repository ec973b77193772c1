package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventregistration/internal/domain"
)

type fakeContactLister struct {
	emails []string
	phones []string
	err    error
	calls  atomic.Int32
	block  chan struct{}
}

func (l *fakeContactLister) Contacts(ctx context.Context, event *domain.Event) ([]string, []string, error) {
	l.calls.Add(1)
	if l.block != nil {
		<-l.block
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if l.err != nil {
		return nil, nil, l.err
	}
	return l.emails, l.phones, nil
}

var sheetEvent = &domain.Event{ID: "hackathon", Name: "Hack Sprint", Registry: domain.RegistrySheets}

func TestCachedContactGuard_LiveHitSkipsRemoteRead(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	lister := &fakeContactLister{emails: []string{"Ravi@College.edu"}, phones: []string{"9876543210"}}
	g := NewCachedContactGuard(lister, time.Minute, clock)
	ctx := context.Background()

	ok, err := g.IsRegistered(ctx, sheetEvent, "ravi@college.edu", "9000000000")
	require.NoError(t, err)
	assert.True(t, ok, "email match is case-insensitive")
	assert.EqualValues(t, 1, lister.calls.Load())

	ok, err = g.IsRegistered(ctx, sheetEvent, "new@college.edu", "9876543210")
	require.NoError(t, err)
	assert.True(t, ok, "phone match")
	assert.EqualValues(t, 1, lister.calls.Load(), "live hit answers from the cache")

	clock.Advance(time.Minute)
	ok, err = g.IsRegistered(ctx, sheetEvent, "ravi@college.edu", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 2, lister.calls.Load(), "expired list is read again")
}

func TestCachedContactGuard_NegativeReReadsRemote(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	lister := &fakeContactLister{}
	g := NewCachedContactGuard(lister, 5*time.Minute, clock)
	ctx := context.Background()

	ok, err := g.IsRegistered(ctx, sheetEvent, "ravi@college.edu", "9876543210")
	require.NoError(t, err)
	require.False(t, ok)

	// Another instance appends the row while this cache is still live.
	lister.emails = []string{"ravi@college.edu"}
	lister.phones = []string{"9876543210"}
	clock.Advance(time.Minute)

	ok, err = g.IsRegistered(ctx, sheetEvent, "ravi@college.edu", "9876543210")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 2, lister.calls.Load())

	ok, err = g.IsRegistered(ctx, sheetEvent, "RAVI@college.edu", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 2, lister.calls.Load(), "refreshed list answers the hit")
}

func TestCachedContactGuard_ReadSurvivesCancelledCaller(t *testing.T) {
	lister := &fakeContactLister{emails: []string{"ravi@college.edu"}}
	g := NewCachedContactGuard(lister, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := g.IsRegistered(ctx, sheetEvent, "ravi@college.edu", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCachedContactGuard_RememberUpdatesLiveSet(t *testing.T) {
	lister := &fakeContactLister{}
	g := NewCachedContactGuard(lister, time.Minute, &fakeClock{now: time.Now()})
	ctx := context.Background()

	ok, err := g.IsRegistered(ctx, sheetEvent, "neha@college.edu", "9876543211")
	require.NoError(t, err)
	require.False(t, ok)

	g.Remember(sheetEvent, "neha@college.edu", "9876543211")
	ok, err = g.IsRegistered(ctx, sheetEvent, "NEHA@college.edu", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, lister.calls.Load())
}

func TestCachedContactGuard_EmptyContactsNeverMatch(t *testing.T) {
	lister := &fakeContactLister{emails: []string{""}, phones: []string{""}}
	g := NewCachedContactGuard(lister, time.Minute, nil)
	ok, err := g.IsRegistered(context.Background(), sheetEvent, "", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedContactGuard_ReadErrorIsNotCached(t *testing.T) {
	lister := &fakeContactLister{err: errors.New("quota exceeded")}
	g := NewCachedContactGuard(lister, time.Minute, nil)
	ctx := context.Background()

	_, err := g.IsRegistered(ctx, sheetEvent, "a@college.edu", "9876543210")
	require.Error(t, err)

	lister.err = nil
	_, err = g.IsRegistered(ctx, sheetEvent, "a@college.edu", "9876543210")
	require.NoError(t, err)
	assert.EqualValues(t, 2, lister.calls.Load())
}

func TestCachedContactGuard_ConcurrentMissesShareOneRead(t *testing.T) {
	lister := &fakeContactLister{block: make(chan struct{})}
	g := NewCachedContactGuard(lister, time.Minute, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.IsRegistered(context.Background(), sheetEvent, "a@college.edu", "9876543210")
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return lister.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(lister.block)
	wg.Wait()
	assert.LessOrEqual(t, lister.calls.Load(), int32(2))
}

func TestIndexGuard(t *testing.T) {
	repo := newFakeRegistrationRepo()
	reg := domain.NewRegistration(soloEvent, domain.Participant{Email: "asha@college.edu", Phone: "9876543210"}, nil, "", "", time.Now())
	require.NoError(t, repo.Create(context.Background(), reg))

	g := NewIndexGuard(repo)
	ok, err := g.IsRegistered(context.Background(), soloEvent, "asha@college.edu", "9000000000")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.IsRegistered(context.Background(), teamEvent, "asha@college.edu", "9876543210")
	require.NoError(t, err)
	assert.False(t, ok, "other events are independent")
}

func TestGuardRouter(t *testing.T) {
	lister := &fakeContactLister{emails: []string{"ravi@college.edu"}}
	r := NewGuardRouter(map[domain.RegistryKind]domain.DuplicateGuard{
		domain.RegistrySheets: NewCachedContactGuard(lister, time.Minute, nil),
	})

	ok, err := r.IsRegistered(context.Background(), sheetEvent, "ravi@college.edu", "")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.IsRegistered(context.Background(), soloEvent, "ravi@college.edu", "")
	var aerr *domain.AuthInitError
	require.True(t, errors.As(err, &aerr))
	assert.True(t, aerr.Missing)

	r.Remember(soloEvent, "x@college.edu", "")
}
