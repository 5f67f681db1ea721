// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"
)

// ReferralPrefix marks a deep-link payload like /start ref_12345.
const ReferralPrefix = "ref_"

var errUsage = errors.New("invalid arguments")

// displayName picks the best human-readable name for a Telegram user.
func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ParseReferral extracts the inviter id from a /start payload.
func ParseReferral(payload string) (int64, bool) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(payload), ReferralPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseUserAmount parses "<user_id> <amount>".
func parseUserAmount(args []string) (int64, decimal.Decimal, error) {
	if len(args) != 2 {
		return 0, decimal.Zero, errUsage
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, decimal.Zero, errUsage
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return 0, decimal.Zero, errUsage
	}
	return userID, amount, nil
}

// parseID parses a single positive id argument (user or guild).
func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errUsage
	}
	return id, nil
}

// ItemSpec is the parsed form of /add_item <price> <power> <name...>.
type ItemSpec struct {
	Price decimal.Decimal
	Power int
	Name  string
}

// ParseItemSpec parses the /add_item arguments. The name may contain spaces.
func ParseItemSpec(args []string) (ItemSpec, error) {
	if len(args) < 3 {
		return ItemSpec{}, errUsage
	}
	price, err := decimal.NewFromString(args[0])
	if err != nil || !price.IsPositive() {
		return ItemSpec{}, errUsage
	}
	power, err := strconv.Atoi(args[1])
	if err != nil || power < 0 {
		return ItemSpec{}, errUsage
	}
	name := strings.TrimSpace(strings.Join(args[2:], " "))
	if name == "" {
		return ItemSpec{}, errUsage
	}
	return ItemSpec{Price: price, Power: power, Name: name}, nil
}
