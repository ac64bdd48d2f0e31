package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimals every signed amount carries.
const AmountPlaces = 2

// Message tags as the settlement verifier hashes them. Buy and sell keep a
// leading space.
const (
	TagSend = "Send"
	TagBuy  = " BUY"
	TagSell = " SELL"
)

// FormatAmount renders amount with exactly two decimals, rounding half away from zero.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountPlaces)
}

// RoundAmount rounds amount to the precision that is signed.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AmountPlaces)
}

// BuildMessage builds "<tag> <amount>[ to <to>] nonce:<nonce>".
func BuildMessage(tag string, amount decimal.Decimal, to, nonce string) string {
	var b strings.Builder
	b.WriteString(tag)
	b.WriteByte(' ')
	b.WriteString(FormatAmount(amount))
	if to != "" {
		b.WriteString(" to ")
		b.WriteString(to)
	}
	b.WriteString(" nonce:")
	b.WriteString(nonce)
	return b.String()
}

// LoginMessage builds the challenge login message.
func LoginMessage(appName, nonce string) string {
	return fmt.Sprintf("Login to %s nonce:%s", appName, nonce)
}

// IntentMessage builds the canonical message for a transaction intent.
// Recipient addresses are lower-cased; buy and sell carry no recipient.
func IntentMessage(action Action, amount decimal.Decimal, to, nonce string) (string, error) {
	switch action {
	case ActionSend:
		return BuildMessage(TagSend, amount, NormalizeAddress(to), nonce), nil
	case ActionBuy:
		return BuildMessage(TagBuy, amount, "", nonce), nil
	case ActionSell:
		return BuildMessage(TagSell, amount, "", nonce), nil
	default:
		return "", ErrInvalidAction
	}
}
