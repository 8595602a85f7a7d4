package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobboard-notify-backend/internal/model"
	"jobboard-notify-backend/internal/push"
	"jobboard-notify-backend/internal/store"
	"jobboard-notify-backend/internal/testutil"
)

type dispatcherFixture struct {
	store  store.Store
	db     *gorm.DB
	native *fakeNative
	web    *fakeWeb
	d      *Dispatcher
}

func newFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	s, gormDB := testutil.NewStore(t)
	f := &dispatcherFixture{
		store:  s,
		db:     gormDB,
		native: &fakeNative{results: map[string]push.NativeResult{}},
		web:    &fakeWeb{statuses: map[string]push.Status{}},
	}
	f.d = NewDispatcher(s, f.native, f.web, 4, testutil.DiscardLogger())
	return f
}

func TestDispatcher_NewJobScenario(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"admin", "web-user", "native-user", "quiet-user"}, "admin")
	testutil.SeedWebPush(t, f.db, "web-user", "https://push.example/web-user")
	testutil.SeedNativeToken(t, f.db, "native-user", "tok-native")

	res, err := f.d.NewJob(context.Background(), "admin", NewJob{JobID: "J1", Title: "Cleanup crew"})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Recipients)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.SentNative)
	assert.Equal(t, 1, res.SentWebPush)
	assert.Equal(t, int64(4), testutil.CountNotifications(t, f.db))

	assert.Equal(t, []string{"https://push.example/web-user"}, f.web.sent())
	require.Len(t, f.native.calls, 1, "native recipients go out in one multicast")
	assert.Equal(t, []string{"tok-native"}, f.native.calls[0])
	assert.Equal(t, "new_job:J1", f.native.msgs[0].NID)
	assert.Equal(t, "/jobs/J1", f.native.msgs[0].Link)
	assert.Equal(t, f.native.msgs[0], f.web.msgs[0], "both channels carry the same payload")

	var record model.Notification
	require.NoError(t, f.db.Where("user_id = ?", "quiet-user").First(&record).Error)
	assert.Equal(t, model.KindNewJob, record.Kind)
	assert.Equal(t, "J1", record.SubjectID)
	assert.Equal(t, "New job: Cleanup crew", record.Title)
	assert.Empty(t, record.ReadBy)
}

func TestDispatcher_OneChannelPerRecipient(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"both"})
	testutil.SeedWebPush(t, f.db, "both", "https://push.example/both")
	testutil.SeedNativeToken(t, f.db, "both", "tok-both")

	res, err := f.d.NewJob(context.Background(), "admin", NewJob{JobID: "J1", Title: "Cleanup crew"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, []string{"https://push.example/both"}, f.web.sent())
	assert.Empty(t, f.native.tokens())
}

func TestDispatcher_RepeatedFanOutKeepsNID(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"u1"})
	testutil.SeedNativeToken(t, f.db, "u1", "tok-u1")
	ctx := context.Background()

	_, err := f.d.ApplicationAccepted(ctx, "admin", ApplicationAccepted{JobID: "J7", JobTitle: "Gardening", ApplicantID: "u1", ApplicantName: "Ann"})
	require.NoError(t, err)
	_, err = f.d.ApplicationAccepted(ctx, "admin", ApplicationAccepted{JobID: "J7", JobTitle: "Gardening", ApplicantID: "u1", ApplicantName: "Ann"})
	require.NoError(t, err)

	require.Len(t, f.native.msgs, 2)
	assert.Equal(t, "application_accepted:J7", f.native.msgs[0].NID)
	assert.Equal(t, f.native.msgs[0].NID, f.native.msgs[1].NID)
	assert.Equal(t, int64(2), testutil.CountNotifications(t, f.db, "u1"))
}

func TestDispatcher_NewApplicationReachesAdmins(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"A1", "A2", "U1"}, "A1", "A2")
	testutil.SeedNativeToken(t, f.db, "A1", "tok-a1")
	testutil.SeedNativeToken(t, f.db, "A2", "tok-a2")

	res, err := f.d.NewApplication(context.Background(), "U1", NewApplication{
		JobID: "J2", JobTitle: "Painting", ApplicantID: "U1", ApplicantName: "Ann",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent)
	assert.ElementsMatch(t, []string{"tok-a1", "tok-a2"}, f.native.tokens())
	assert.Equal(t, "new_application:J2", f.native.msgs[0].NID)
	assert.Equal(t, "Ann applied to Painting", f.native.msgs[0].Body)
	assert.Equal(t, int64(2), testutil.CountNotifications(t, f.db))
	assert.Equal(t, int64(0), testutil.CountNotifications(t, f.db, "U1"))
}

func TestDispatcher_NewApplicationForSomeoneElse(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"A1", "U1", "U2"}, "A1")
	testutil.SeedNativeToken(t, f.db, "A1", "tok-a1")

	_, err := f.d.NewApplication(context.Background(), "U1", NewApplication{
		JobID: "J2", JobTitle: "Painting", ApplicantID: "U2", ApplicantName: "Bob",
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, int64(0), testutil.CountNotifications(t, f.db))
	assert.Empty(t, f.native.calls)
}

func TestDispatcher_InvalidPayloadWritesNothing(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"u1", "A1"}, "A1")
	testutil.SeedNativeToken(t, f.db, "u1", "tok-u1")
	ctx := context.Background()

	_, err := f.d.NewJob(ctx, "A1", NewJob{Title: "no id"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.d.NewApplication(ctx, "u1", NewApplication{JobID: "J2", ApplicantID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.d.ApplicationAccepted(ctx, "A1", ApplicationAccepted{JobID: "J2", JobTitle: "x", ApplicantName: "Ann"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, int64(0), testutil.CountNotifications(t, f.db))
	assert.Empty(t, f.native.calls)
	assert.Empty(t, f.web.sent())
}

func TestDispatcher_InvalidNativeTokenIsPruned(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"A1", "A2", "U1"}, "A1", "A2")
	testutil.SeedNativeToken(t, f.db, "A1", "tok-dead")
	testutil.SeedNativeToken(t, f.db, "A2", "tok-live")
	f.native.results["tok-dead"] = push.NativeResult{
		Status: push.StatusInvalidEndpoint,
		Err:    errors.New("registration-token-not-registered"),
	}

	res, err := f.d.NewApplication(context.Background(), "U1", NewApplication{
		JobID: "J2", JobTitle: "Painting", ApplicantID: "U1", ApplicantName: "Ann",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, int64(2), testutil.CountNotifications(t, f.db))

	ctx := context.Background()
	dead, err := f.store.GetRegistrations(ctx, "A1")
	require.NoError(t, err)
	assert.Nil(t, dead.Native)

	live, err := f.store.GetRegistrations(ctx, "A2")
	require.NoError(t, err)
	assert.NotNil(t, live.Native)
}

func TestDispatcher_WebPushFailures(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"gone", "flaky", "fine"})
	testutil.SeedWebPush(t, f.db, "gone", "https://push.example/gone")
	testutil.SeedWebPush(t, f.db, "flaky", "https://push.example/flaky")
	testutil.SeedWebPush(t, f.db, "fine", "https://push.example/fine")
	f.web.statuses["https://push.example/gone"] = push.StatusInvalidEndpoint
	f.web.statuses["https://push.example/flaky"] = push.StatusTransientError

	res, err := f.d.NewJob(context.Background(), "admin", NewJob{JobID: "J3", Title: "Moving boxes"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Recipients)
	assert.Equal(t, 1, res.Sent)
	assert.Len(t, f.web.sent(), 3)

	all, err := f.store.ListRegistrations(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, all, "gone")
	assert.Contains(t, all, "flaky")
	assert.Contains(t, all, "fine")
}

func TestDispatcher_MulticastFailureIsTransient(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUsers(t, f.db, []string{"u1", "u2"})
	testutil.SeedNativeToken(t, f.db, "u1", "tok-1")
	testutil.SeedNativeToken(t, f.db, "u2", "tok-2")
	f.native.err = errors.New("fcm unavailable")

	res, err := f.d.NewJob(context.Background(), "admin", NewJob{JobID: "J4", Title: "Snow shovelling"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, int64(2), testutil.CountNotifications(t, f.db))

	all, err := f.store.ListRegistrations(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDispatcher_WithoutNativeSender(t *testing.T) {
	s, gormDB := testutil.NewStore(t)
	web := &fakeWeb{statuses: map[string]push.Status{}}
	d := NewDispatcher(s, nil, web, 2, testutil.DiscardLogger())
	testutil.SeedUsers(t, gormDB, []string{"u1"})
	testutil.SeedNativeToken(t, gormDB, "u1", "tok-1")

	res, err := d.NewJob(context.Background(), "admin", NewJob{JobID: "J5", Title: "Dog walking"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, int64(1), testutil.CountNotifications(t, gormDB))

	regs, err := s.GetRegistrations(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, regs.Native, "a missing sender is not a dead token")
}

func TestDispatcher_TestNotification(t *testing.T) {
	f := newFixture(t)
	testutil.SeedWebPush(t, f.db, "me", "https://push.example/me")
	testutil.SeedNativeToken(t, f.db, "me", "tok-me")
	f.d.now = func() time.Time { return time.UnixMilli(1700000000000) }

	res, err := f.d.Test(context.Background(), "me", Test{Title: "Ping"})
	require.NoError(t, err)

	assert.True(t, res.HasToken)
	assert.True(t, res.HasSubscription)
	assert.Equal(t, 1, res.SentWebPush)
	assert.Equal(t, 0, res.SentNative)
	assert.Empty(t, f.native.tokens())
	require.Len(t, f.web.msgs, 1)
	assert.Equal(t, "test:1700000000000", f.web.msgs[0].NID)
	assert.Equal(t, int64(1), testutil.CountNotifications(t, f.db, "me"))
}

func TestDispatcher_TestWithoutRegistrations(t *testing.T) {
	f := newFixture(t)

	res, err := f.d.Test(context.Background(), "nobody", Test{})
	require.NoError(t, err)
	assert.False(t, res.HasToken)
	assert.False(t, res.HasSubscription)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, int64(1), testutil.CountNotifications(t, f.db, "nobody"))
}

func TestDispatcher_WriteFailureAbortsBeforeSending(t *testing.T) {
	s, gormDB := testutil.NewStore(t)
	native := &fakeNative{}
	web := &fakeWeb{}
	d := NewDispatcher(&failingStore{Store: s, failCreate: true}, native, web, 2, testutil.DiscardLogger())
	testutil.SeedUsers(t, gormDB, []string{"u1", "u2"})
	testutil.SeedNativeToken(t, gormDB, "u1", "tok-1")
	testutil.SeedWebPush(t, gormDB, "u2", "https://push.example/u2")

	_, err := d.NewJob(context.Background(), "admin", NewJob{JobID: "J6", Title: "Babysitting"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, native.calls)
	assert.Empty(t, web.sent())
}

func TestDispatcher_EmptyAudience(t *testing.T) {
	f := newFixture(t)

	res, err := f.d.NewJob(context.Background(), "admin", NewJob{JobID: "J8", Title: "Nobody home"})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, f.native.calls)
}
