package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
	"shi-bot/internal/repository"
)

const (
	// PayloadPrefix starts every invoice payload issued by the bot.
	PayloadPrefix = "buy_"

	// MaxInvoiceShi caps the SHI bought with a single invoice.
	MaxInvoiceShi = 1_000_000
)

var (
	// ErrMalformedPayload is returned when an invoice payload cannot be parsed.
	ErrMalformedPayload = errors.New("malformed payment payload")
	// ErrAmountTooLarge is returned for purchases above MaxInvoiceShi or
	// whose Stars price would not fit in an int64.
	ErrAmountTooLarge = errors.New("purchase amount too large")
)

// FormatPayload builds the invoice payload buy_<amount>_<user id>.
func FormatPayload(amount, userID int64) string {
	return PayloadPrefix + strconv.FormatInt(amount, 10) + "_" + strconv.FormatInt(userID, 10)
}

// ParsePayload reads buy_<amount>_<user id>. The user part may be omitted,
// in which case userID is zero. The amount must be a positive integer.
func ParsePayload(payload string) (amount, userID int64, err error) {
	parts := strings.Split(payload, "_")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "buy" {
		return 0, 0, ErrMalformedPayload
	}

	amount, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, 0, ErrMalformedPayload
	}

	if len(parts) == 3 {
		userID, err = strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return 0, 0, ErrMalformedPayload
		}
	}
	return amount, userID, nil
}

// ValidPayload reports whether a pre-checkout payload looks like one of ours.
func ValidPayload(payload string) bool {
	return strings.HasPrefix(payload, PayloadPrefix)
}

// PaymentCredit is the SHI credit derived from a successful payment.
type PaymentCredit struct {
	UserID   int64
	Amount   decimal.Decimal
	Fallback bool // amount was recomputed from the stars paid
}

// ResolvePayment decides who gets how much SHI for a payment. A well-formed
// payload wins regardless of the total paid; anything else credits the payer
// with floor(totalPaid / starsPerShi), at least 1.
func ResolvePayment(payerID, totalPaid int64, payload string, starsPerShi int) PaymentCredit {
	if amount, userID, err := ParsePayload(payload); err == nil {
		if userID == 0 {
			userID = payerID
		}
		return PaymentCredit{UserID: userID, Amount: decimal.NewFromInt(amount)}
	}

	rate := int64(starsPerShi)
	if rate <= 0 {
		rate = DefaultStarsPerShi
	}
	amount, _ := SplitCoins(totalPaid, rate)
	return PaymentCredit{UserID: payerID, Amount: decimal.NewFromInt(max(1, amount)), Fallback: true}
}

// CreditFromPayment credits SHI for a confirmed Stars payment and records
// the payment time.
func (s *EconomyService) CreditFromPayment(ctx context.Context, payerID, totalPaid int64, payload string) (*PaymentCredit, error) {
	starsPerShi, err := s.settings.StarsPerShi(ctx)
	if err != nil {
		return nil, err
	}

	credit := ResolvePayment(payerID, totalPaid, payload, starsPerShi)
	if credit.Fallback {
		log.Warn().
			Int64("user_id", payerID).
			Str("payload", payload).
			Int64("total", totalPaid).
			Msg("Unparsable payment payload, crediting by amount paid")
	}

	err = s.mutate(ctx, credit.UserID, func(tx *repository.Store, _ *model.User) error {
		if _, err := creditShiTx(ctx, tx, credit.UserID, credit.Amount, model.TxTypeStarsPayment, payload); err != nil {
			return err
		}
		return tx.Settings.Set(ctx, model.SettingLastPaymentTS, strconv.FormatInt(time.Now().Unix(), 10))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit payment: %w", err)
	}

	log.Info().
		Int64("user_id", credit.UserID).
		Int64("payer_id", payerID).
		Str("amount", credit.Amount.String()).
		Msg("Payment credited")

	return &credit, nil
}

// StarsFor returns the Stars price of amount SHI at the current rate.
func (s *EconomyService) StarsFor(ctx context.Context, amount int64) (int64, error) {
	rate, err := s.settings.StarsPerShi(ctx)
	if err != nil {
		return 0, err
	}
	return PriceInStars(amount, rate)
}

// PriceInStars returns amount*starsPerShi. Non-positive amounts give
// ErrInvalidAmount; amounts above MaxInvoiceShi or a product that would
// overflow give ErrAmountTooLarge.
func PriceInStars(amount int64, starsPerShi int) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	rate := int64(starsPerShi)
	if rate <= 0 {
		return 0, ErrInvalidRate
	}
	if amount > MaxInvoiceShi || amount > math.MaxInt64/rate {
		return 0, ErrAmountTooLarge
	}
	return amount * rate, nil
}
