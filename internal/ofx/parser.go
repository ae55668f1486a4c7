// Package ofx converts OFX/QFX bank statements into transaction
// parameters the engine can record.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// StatementEntry is one statement line, normalized: Amount is always
// positive and Debit says which way the money moved.
type StatementEntry struct {
	Date        time.Time
	Description string
	FiTID       string
	Amount      decimal.Decimal
	Debit       bool
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files: leading
// whitespace before the header, mixed-case SEVERITY values, and
// SGML-style tags missing their closing bracket.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX statement and returns its entries.
func (p *Parser) ParseFile(reader io.Reader) ([]StatementEntry, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var entries []StatementEntry
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, ofxTx := range stmt.BankTranList.Transactions {
			entries = append(entries, p.convertTransaction(ofxTx))
		}
	}

	slog.Info("parsed OFX statement", "entries", len(entries))
	return entries, nil
}

// convertTransaction normalizes one OFX transaction. OFX uses negative
// amounts for debits.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) StatementEntry {
	amount := decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, 2)

	entry := StatementEntry{
		Date:        ofxTx.DtPosted.Time,
		Description: p.describe(ofxTx),
		FiTID:       string(ofxTx.FiTID),
		Amount:      amount.Abs(),
		Debit:       amount.IsNegative(),
	}
	return entry
}

// describe picks the most useful description field for a transaction.
func (p *Parser) describe(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	name := strings.TrimSpace(string(tx.Name))
	if name == "" {
		name = strings.TrimSpace(string(tx.Memo))
	}
	return name
}
