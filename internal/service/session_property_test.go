package service

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestSessionStateMachineProperty drives random Begin/Submit/Cancel
// sequences against a model map and checks that every Submit ends the
// session.
func TestSessionStateMachineProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := NewSessionStore()
		awaiting := map[int64]bool{}

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			user := rapid.Int64Range(1, 5).Draw(t, "user")
			switch rapid.IntRange(0, 2).Draw(t, "action") {
			case 0:
				store.Begin(user)
				awaiting[user] = true
			case 1:
				text := rapid.SampledFrom([]string{"5", "12", "abc", "", "0", "-1", " 7 "}).Draw(t, "text")
				amount, err := store.Submit(user, text)
				if !awaiting[user] {
					if !errors.Is(err, ErrNotAwaiting) {
						t.Fatalf("submit without session: got %v", err)
					}
				} else {
					want, wantErr := ParseAmount(text)
					if !errors.Is(err, wantErr) || amount != want {
						t.Fatalf("submit %q: got %d,%v want %d,%v", text, amount, err, want, wantErr)
					}
				}
				delete(awaiting, user)
			case 2:
				if store.Cancel(user) != awaiting[user] {
					t.Fatalf("cancel result mismatch for user %d", user)
				}
				delete(awaiting, user)
			}

			for u := int64(1); u <= 5; u++ {
				want := StateIdle
				if awaiting[u] {
					want = StateAwaitingAmount
				}
				if got := store.State(u); got != want {
					t.Fatalf("user %d: state %v, want %v", u, got, want)
				}
			}
		}
	})
}

// TestParseAmountProperty checks that any positive integer is accepted as
// written and anything with a non-digit is rejected.
func TestParseAmountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(1, 1<<50).Draw(t, "n")
		got, err := ParseAmount(strconv.FormatInt(n, 10))
		if err != nil || got != n {
			t.Fatalf("ParseAmount(%d) = %d, %v", n, got, err)
		}

		bad := rapid.StringMatching(`[0-9]*[a-z.+\-][0-9]*`).Draw(t, "bad")
		if _, err := ParseAmount(bad); !errors.Is(err, ErrNotNumeric) {
			t.Fatalf("ParseAmount(%q) accepted", bad)
		}
	})
}

func TestSessionStore_Sweep(t *testing.T) {
	store := NewSessionStore()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	store.Begin(1)
	now = now.Add(5 * time.Minute)
	store.Begin(2)
	now = now.Add(6 * time.Minute)

	removed := store.Sweep(10 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, StateIdle, store.State(1))
	assert.Equal(t, StateAwaitingAmount, store.State(2))
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_SubmitIsTerminal(t *testing.T) {
	store := NewSessionStore()

	store.Begin(1)
	_, err := store.Submit(1, "abc")
	require.ErrorIs(t, err, ErrNotNumeric)

	// the failed reply ended the session
	_, err = store.Submit(1, "5")
	require.ErrorIs(t, err, ErrNotAwaiting)

	store.Begin(1)
	amount, err := store.Submit(1, "5")
	require.NoError(t, err)
	assert.Equal(t, int64(5), amount)
	assert.Equal(t, StateIdle, store.State(1))
}
