package handler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/service"
)

func TestParseReferral(t *testing.T) {
	tests := []struct {
		payload string
		want    int64
		ok      bool
	}{
		{"ref_123", 123, true},
		{" ref_42 ", 42, true},
		{"", 0, false},
		{"ref_", 0, false},
		{"ref_abc", 0, false},
		{"ref_-5", 0, false},
		{"ref_0", 0, false},
		{"123", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, ok := ParseReferral(tt.payload)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseItemSpec(t *testing.T) {
	spec, err := ParseItemSpec([]string{"2.5", "7", "Golden", "Axe"})
	require.NoError(t, err)
	assert.True(t, spec.Price.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 7, spec.Power)
	assert.Equal(t, "Golden Axe", spec.Name)

	for _, args := range [][]string{
		nil,
		{"1", "2"},
		{"x", "2", "Sword"},
		{"0", "2", "Sword"},
		{"-1", "2", "Sword"},
		{"1", "-2", "Sword"},
		{"1", "two", "Sword"},
	} {
		_, err := ParseItemSpec(args)
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}

func TestParseUserAmount(t *testing.T) {
	id, amount, err := parseUserAmount([]string{"100", "-0.5"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), id)
	assert.True(t, amount.Equal(decimal.RequireFromString("-0.5")))

	_, _, err = parseUserAmount([]string{"100"})
	assert.ErrorIs(t, err, errUsage)
	_, _, err = parseUserAmount([]string{"abc", "1"})
	assert.ErrorIs(t, err, errUsage)
	_, _, err = parseUserAmount([]string{"1", "lots"})
	assert.ErrorIs(t, err, errUsage)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "neo", displayName(&tele.User{Username: "neo", FirstName: "Thomas"}))
	assert.Equal(t, "Thomas Anderson", displayName(&tele.User{FirstName: "Thomas", LastName: "Anderson"}))
	assert.Equal(t, "Trinity", displayName(&tele.User{FirstName: "Trinity"}))
}

func TestInvoice(t *testing.T) {
	h := &PaymentHandler{currency: "SHI"}

	inv := h.invoice(77, 3, 15)

	assert.Equal(t, "XTR", inv.Currency)
	assert.Equal(t, "buy_3_77", inv.Payload)
	assert.Equal(t, "buy-shi", inv.Start)
	require.Len(t, inv.Prices, 1)
	assert.Equal(t, 15, inv.Prices[0].Amount)
	assert.Equal(t, "3 SHI", inv.Prices[0].Label)

	amount, userID, err := service.ParsePayload(inv.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(3), amount)
	assert.Equal(t, int64(77), userID)
}

func TestHandleTextWithoutSessionIsIgnored(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)

	h := NewPaymentHandler(nil, nil, service.NewSessionStore(), "SHI")
	c := b.NewContext(tele.Update{Message: &tele.Message{
		Sender: &tele.User{ID: 5},
		Chat:   &tele.Chat{ID: 5, Type: tele.ChatPrivate},
		Text:   "hello",
	}})

	assert.NoError(t, h.HandleText(c))
}

func TestParseID(t *testing.T) {
	id, err := parseID([]string{"42"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, args := range [][]string{nil, {"0"}, {"-3"}, {"abc"}, {"1", "2"}} {
		_, err := parseID(args)
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}
