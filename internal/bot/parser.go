// Package bot provides the Telegram glue layer. It parses free-text
// expense messages and relays them to the engine; it never touches
// storage directly.
package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsedMessage is the result of parsing a free-text expense message.
//
// Format: AMOUNT DESCRIPTION... [@owner] [#account]
//
//	250 lunch with team          -> self expense on the default bank
//	300 movie tickets @raj       -> spawns a loan for raj
//	499 groceries #hdfc          -> expense on the bank aliased hdfc
type ParsedMessage struct {
	Description string
	Owner       string
	Account     string
	Amount      decimal.Decimal
}

func parseMessage(input string) (*ParsedMessage, error) {
	parts := strings.Fields(input)
	if len(parts) < 2 {
		return nil, fmt.Errorf("expected: AMOUNT DESCRIPTION [@owner] [#account]")
	}

	amountStr := strings.ReplaceAll(parts[0], ",", "")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", parts[0])
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}

	parsed := &ParsedMessage{Amount: amount}

	var descParts []string
	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, "@") && len(part) > 1:
			parsed.Owner = part[1:]
		case strings.HasPrefix(part, "#") && len(part) > 1:
			parsed.Account = part[1:]
		default:
			descParts = append(descParts, part)
		}
	}

	parsed.Description = strings.Join(descParts, " ")
	if parsed.Description == "" {
		return nil, fmt.Errorf("missing description")
	}
	return parsed, nil
}
