package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestSplitCoinsProperty checks floor division: chunks*k + remainder == coins
// and 0 <= remainder < k for every positive chunk size.
func TestSplitCoinsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		coins := rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "coins")
		k := rapid.Int64Range(1, 10_000).Draw(t, "k")

		chunks, rem := SplitCoins(coins, k)

		if chunks*k+rem != coins {
			t.Fatalf("%d*%d+%d != %d", chunks, k, rem, coins)
		}
		if rem < 0 || rem >= k {
			t.Fatalf("remainder %d outside [0,%d)", rem, k)
		}
		if coins >= 0 && coins < k && chunks != 0 {
			t.Fatalf("coins %d below chunk size %d produced %d chunks", coins, k, chunks)
		}
	})
}

func TestSplitCoins(t *testing.T) {
	tests := []struct {
		coins, k, chunks, rem int64
	}{
		{0, 100, 0, 0},
		{99, 100, 0, 99},
		{100, 100, 1, 0},
		{250, 100, 2, 50},
		{-1, 100, -1, 99},
	}
	for _, tt := range tests {
		chunks, rem := SplitCoins(tt.coins, tt.k)
		assert.Equal(t, tt.chunks, chunks, "coins=%d", tt.coins)
		assert.Equal(t, tt.rem, rem, "coins=%d", tt.coins)
	}
}

// TestPayloadRoundTripProperty checks that the amount and user written into
// an invoice payload are read back exactly.
func TestPayloadRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Int64Range(1, 1_000_000).Draw(t, "amount")
		userID := rapid.Int64Range(1, 1<<40).Draw(t, "userID")
		payer := rapid.Int64Range(1, 1<<40).Draw(t, "payer")
		total := rapid.Int64Range(0, 1_000_000).Draw(t, "total")
		rate := rapid.IntRange(1, 100).Draw(t, "rate")

		payload := FormatPayload(amount, userID)
		gotAmount, gotUser, err := ParsePayload(payload)
		if err != nil {
			t.Fatalf("parse %q: %v", payload, err)
		}
		if gotAmount != amount || gotUser != userID {
			t.Fatalf("round trip mismatch: %q -> %d,%d", payload, gotAmount, gotUser)
		}

		credit := ResolvePayment(payer, total, payload, rate)
		if credit.Fallback || credit.UserID != userID || !credit.Amount.Equal(decimal.NewFromInt(amount)) {
			t.Fatalf("payload credit ignored: %+v", credit)
		}
	})
}

// TestPaymentFallbackProperty checks that any payload we did not issue
// credits the payer with max(1, floor(total/rate)).
func TestPaymentFallbackProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SampledFrom([]string{
			"", "buy", "buy_", "buy_x_1", "buy_0_5", "buy_-3_5", "buy_5_x",
			"sell_5_1", "buy_5_1_extra", "hello",
		}).Draw(t, "payload")
		payer := rapid.Int64Range(1, 1<<40).Draw(t, "payer")
		total := rapid.Int64Range(0, 1_000_000).Draw(t, "total")
		rate := rapid.IntRange(1, 100).Draw(t, "rate")

		credit := ResolvePayment(payer, total, payload, rate)

		want := max(int64(1), total/int64(rate))
		if !credit.Fallback {
			t.Fatalf("payload %q should fall back", payload)
		}
		if credit.UserID != payer {
			t.Fatalf("fallback credited %d, want payer %d", credit.UserID, payer)
		}
		if !credit.Amount.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("fallback amount %s, want %d", credit.Amount, want)
		}
	})
}

func TestResolvePayment(t *testing.T) {
	c := ResolvePayment(1, 3, "buy_7_42", 5)
	assert.Equal(t, int64(42), c.UserID)
	assert.True(t, c.Amount.Equal(decimal.NewFromInt(7)))
	assert.False(t, c.Fallback)

	// user part omitted credits the payer
	c = ResolvePayment(9, 0, "buy_3", 5)
	assert.Equal(t, int64(9), c.UserID)
	assert.True(t, c.Amount.Equal(decimal.NewFromInt(3)))

	c = ResolvePayment(9, 12, "garbage", 5)
	assert.Equal(t, int64(9), c.UserID)
	assert.True(t, c.Amount.Equal(decimal.NewFromInt(2)))

	// floor below one still credits one
	c = ResolvePayment(9, 4, "garbage", 5)
	assert.True(t, c.Amount.Equal(decimal.NewFromInt(1)))

	assert.True(t, ValidPayload("buy_1_2"))
	assert.False(t, ValidPayload("sell_1_2"))
}

func TestPriceInStars(t *testing.T) {
	stars, err := PriceInStars(7, 5)
	assert.NoError(t, err)
	assert.Equal(t, int64(35), stars)

	stars, err = PriceInStars(MaxInvoiceShi, 5)
	assert.NoError(t, err)
	assert.Equal(t, int64(MaxInvoiceShi*5), stars)

	_, err = PriceInStars(0, 5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = PriceInStars(1, 0)
	assert.ErrorIs(t, err, ErrInvalidRate)

	// 2e18 SHI at 5 Stars each would wrap to a negative price
	amount, err := ParseAmount("2000000000000000000")
	assert.NoError(t, err)
	_, err = PriceInStars(amount, 5)
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	_, err = PriceInStars(MaxInvoiceShi+1, 1)
	assert.ErrorIs(t, err, ErrAmountTooLarge)
	_, err = PriceInStars(2, math.MaxInt)
	assert.ErrorIs(t, err, ErrAmountTooLarge)
}

// TestPriceInStarsProperty checks that every accepted price is exactly
// amount*rate and positive, and that nothing above the cap is accepted.
func TestPriceInStarsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Int64Range(1, math.MaxInt64).Draw(t, "amount")
		rate := rapid.IntRange(1, math.MaxInt).Draw(t, "rate")

		stars, err := PriceInStars(amount, rate)
		if err != nil {
			if !errors.Is(err, ErrAmountTooLarge) {
				t.Fatalf("PriceInStars(%d, %d): unexpected error %v", amount, rate, err)
			}
			if amount <= MaxInvoiceShi && amount <= math.MaxInt64/int64(rate) {
				t.Fatalf("PriceInStars(%d, %d) rejected an in-range amount", amount, rate)
			}
			return
		}
		if amount > MaxInvoiceShi {
			t.Fatalf("PriceInStars(%d, %d) accepted an amount above the cap", amount, rate)
		}
		if stars <= 0 || stars/int64(rate) != amount || stars%int64(rate) != 0 {
			t.Fatalf("PriceInStars(%d, %d) = %d", amount, rate, stars)
		}
	})
}

// TestDailyRemainingProperty checks the cooldown window: a claim is allowed
// exactly when at least cooldown has passed since the last claim.
func TestDailyRemainingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Unix(rapid.Int64Range(1_600_000_000, 1_900_000_000).Draw(t, "now"), 0)
		cooldownHours := rapid.IntRange(1, 48).Draw(t, "cooldownHours")
		agoSecs := rapid.Int64Range(0, 72*3600).Draw(t, "agoSecs")
		cooldown := time.Duration(cooldownHours) * time.Hour

		last := now.Unix() - agoSecs
		remaining := DailyRemaining(last, now, cooldown)

		elapsed := time.Duration(agoSecs) * time.Second
		if elapsed >= cooldown {
			if remaining != 0 {
				t.Fatalf("elapsed %v >= cooldown %v but remaining %v", elapsed, cooldown, remaining)
			}
		} else if remaining != cooldown-elapsed {
			t.Fatalf("remaining %v, want %v", remaining, cooldown-elapsed)
		}
	})
}

func TestDailyRemaining_NeverClaimed(t *testing.T) {
	assert.Equal(t, time.Duration(0), DailyRemaining(0, time.Now(), 24*time.Hour))
}
