package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/menu"
	"shi-bot/internal/model"
	"shi-bot/internal/service"
)

// invoiceStartParameter is the deep-link parameter attached to SHI invoices.
const invoiceStartParameter = "buy-shi"

// PaymentHandler drives the buy-SHI-with-Stars flow.
type PaymentHandler struct {
	economy  *service.EconomyService
	settings *service.SettingsService
	sessions *service.SessionStore
	currency string
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(
	economy *service.EconomyService,
	settings *service.SettingsService,
	sessions *service.SessionStore,
	currency string,
) *PaymentHandler {
	return &PaymentHandler{
		economy:  economy,
		settings: settings,
		sessions: sessions,
		currency: currency,
	}
}

// HandleBuyShiCallback opens a purchase session and asks for an amount.
func (h *PaymentHandler) HandleBuyShiCallback(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	rate, err := h.settings.StarsPerShi(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read stars rate")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Purchases are unavailable right now.", ShowAlert: true})
	}

	h.sessions.Begin(sender.ID)
	_ = c.Respond()
	return c.Send(menu.FormatBuyPrompt(h.currency, rate))
}

// HandleText consumes the amount reply of an open purchase session and
// sends a Stars invoice. Text from users without a session is ignored.
func (h *PaymentHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if h.sessions.State(sender.ID) != service.StateAwaitingAmount {
		return nil
	}

	amount, err := h.sessions.Submit(sender.ID, c.Text())
	if errors.Is(err, service.ErrNotAwaiting) {
		return nil
	}
	if err != nil {
		return c.Send("Please send only a number.")
	}

	stars, err := h.economy.StarsFor(context.Background(), amount)
	if errors.Is(err, service.ErrAmountTooLarge) {
		h.sessions.Begin(sender.ID)
		return c.Send(menu.FormatAmountTooLarge(h.currency, service.MaxInvoiceShi))
	}
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Int64("amount", amount).Msg("Failed to price invoice")
		return c.Send("❌ Could not create the invoice.")
	}

	return c.Send(h.invoice(sender.ID, amount, stars))
}

// HandleCancel handles /cancel, dropping an open purchase session.
func (h *PaymentHandler) HandleCancel(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if !h.sessions.Cancel(sender.ID) {
		return c.Send("Nothing to cancel.")
	}
	return c.Send("Purchase cancelled.", menu.MainMenu(h.currency))
}

func (h *PaymentHandler) invoice(userID, amount, stars int64) *tele.Invoice {
	label := fmt.Sprintf("%d %s", amount, h.currency)
	return &tele.Invoice{
		Title:       "Buy " + label,
		Description: fmt.Sprintf("Purchase %s for %d Telegram Stars", label, stars),
		Payload:     service.FormatPayload(amount, userID),
		Currency:    model.CurrencyStars,
		Prices:      []tele.Price{{Label: label, Amount: int(stars)}},
		Start:       invoiceStartParameter,
	}
}

// HandleCheckout approves pre-checkout queries carrying a purchase payload.
func (h *PaymentHandler) HandleCheckout(c tele.Context) error {
	q := c.PreCheckoutQuery()
	if q == nil {
		return nil
	}
	if !service.ValidPayload(q.Payload) {
		log.Warn().Str("query_id", q.ID).Str("payload", q.Payload).Msg("Rejected checkout")
		return c.Accept("Invalid payment payload")
	}
	return c.Accept()
}

// HandlePayment credits SHI after a successful Stars payment.
func (h *PaymentHandler) HandlePayment(c tele.Context) error {
	msg := c.Message()
	sender := c.Sender()
	if msg == nil || msg.Payment == nil || sender == nil {
		return nil
	}
	p := msg.Payment

	credit, err := h.economy.CreditFromPayment(context.Background(), sender.ID, int64(p.Total), p.Payload)
	if err != nil {
		log.Error().Err(err).
			Int64("user_id", sender.ID).
			Str("payload", p.Payload).
			Int("total", p.Total).
			Msg("Failed to credit payment")
		return c.Send("❌ Payment received but crediting failed. An admin will review it.")
	}

	return c.Send(fmt.Sprintf("✅ Payment received! %s %s added to your account.", credit.Amount.String(), h.currency))
}
