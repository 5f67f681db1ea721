package bot

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"shi-bot/internal/config"
)

type fakeBans struct {
	banned map[int64]bool
	err    error
}

func (f *fakeBans) IsBanned(_ context.Context, userID int64) (bool, error) {
	return f.banned[userID], f.err
}

func newTestContext(t require.TestingT, userID int64) tele.Context {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(tele.Update{Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:   "/start",
	}})
}

func counting(calls *int) tele.HandlerFunc {
	return func(tele.Context) error {
		*calls++
		return nil
	}
}

func TestBanMiddleware(t *testing.T) {
	bans := &fakeBans{banned: map[int64]bool{2: true}}
	var calls int
	h := BanMiddleware(bans)(counting(&calls))

	require.NoError(t, h(newTestContext(t, 1)))
	assert.Equal(t, 1, calls)

	require.NoError(t, h(newTestContext(t, 2)))
	assert.Equal(t, 1, calls, "banned user must not reach the handler")
}

func TestBanMiddlewareLetsPaymentsThrough(t *testing.T) {
	bans := &fakeBans{banned: map[int64]bool{2: true}}
	var calls int
	h := BanMiddleware(bans)(counting(&calls))

	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	c := b.NewContext(tele.Update{Message: &tele.Message{
		Sender:  &tele.User{ID: 2},
		Chat:    &tele.Chat{ID: 2, Type: tele.ChatPrivate},
		Payment: &tele.Payment{Currency: "XTR", Total: 15, Payload: "buy_3_2"},
	}})

	require.NoError(t, h(c))
	assert.Equal(t, 1, calls, "a completed payment must reach the handler")

	// a failing ban lookup must not block the credit either
	bans.err = errors.New("db down")
	require.NoError(t, h(c))
	assert.Equal(t, 2, calls)
}

func TestBanMiddlewareError(t *testing.T) {
	bans := &fakeBans{err: errors.New("db down")}
	var calls int
	h := BanMiddleware(bans)(counting(&calls))

	err := h(newTestContext(t, 1))
	assert.ErrorContains(t, err, "db down")
	assert.Zero(t, calls)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware()(func(tele.Context) error {
		panic("boom")
	})

	err := h(newTestContext(t, 1))
	assert.ErrorContains(t, err, "boom")
}

func TestLoggingMiddlewareSetsRequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware()(func(c tele.Context) error {
		seen = RequestID(c)
		return nil
	})

	require.NoError(t, h(newTestContext(t, 1)))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

// AdminMiddleware lets a user through exactly when their id is configured.
func TestAdminMiddlewareProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1000), 1, 10).Draw(t, "adminIDs")
		userID := rapid.Int64Range(1, 1000).Draw(t, "userID")
		cfg := &config.Config{Admin: config.AdminConfig{IDs: adminIDs}}

		var calls int
		h := AdminMiddleware(cfg)(counting(&calls))
		if err := h(newTestContext(t, userID)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := 0
		if slices.Contains(adminIDs, userID) {
			want = 1
		}
		if calls != want {
			t.Fatalf("userID=%d adminIDs=%v: handler calls %d, want %d", userID, adminIDs, calls, want)
		}
	})
}
