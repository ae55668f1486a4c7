package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/engine"
	"github.com/hisablabs/hisab/internal/model"
)

// Config holds the bot's settings. AllowedChatIDs is the authorization
// list; chats not on it get a refusal, and an empty list refuses
// everyone. There is no process-wide authenticated flag.
type Config struct {
	Token          string
	DefaultAccount string
	AllowedChatIDs []int64
	PollTimeout    time.Duration
}

// Bot relays Telegram messages to the engine.
type Bot struct {
	engine *engine.Engine
	tb     *tele.Bot
	cfg    Config
}

// New creates a bot for the given engine.
func New(eng *engine.Engine, cfg Config) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Second
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b := &Bot{engine: eng, tb: tb, cfg: cfg}
	b.register()
	return b, nil
}

// Start runs the long poller until the context is canceled.
func (b *Bot) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.tb.Stop()
	}()

	slog.Info("telegram bot polling", "allowed_chats", len(b.cfg.AllowedChatIDs))
	b.tb.Start()
}

func (b *Bot) register() {
	b.tb.Use(b.authorize)

	b.tb.Handle("/balance", b.handleBalance)
	b.tb.Handle("/loans", b.handleLoans)
	b.tb.Handle("/dashboard", b.handleDashboard)
	b.tb.Handle(tele.OnText, b.handleExpense)
}

// authorize refuses chats that are not on the allow list.
func (b *Bot) authorize(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		chatID := c.Chat().ID
		for _, allowed := range b.cfg.AllowedChatIDs {
			if chatID == allowed {
				return next(c)
			}
		}
		slog.Warn("refused telegram chat", "chat_id", chatID)
		return c.Reply("This chat is not authorized.")
	}
}

func (b *Bot) handleExpense(c tele.Context) error {
	ctx := context.Background()

	parsed, err := parseMessage(c.Text())
	if err != nil {
		return c.Reply(fmt.Sprintf("Could not parse that: %v\nExample: 250 lunch @raj #hdfc", err))
	}

	account := parsed.Account
	if account == "" {
		account = b.cfg.DefaultAccount
	}
	bank, err := b.findBank(ctx, account)
	if err != nil {
		return c.Reply(fmt.Sprintf("No bank matches %q.", account))
	}

	txn, err := b.engine.CreateTransaction(ctx, engine.TransactionParams{
		Date:        time.Now(),
		Description: parsed.Description,
		Amount:      parsed.Amount,
		Owner:       parsed.Owner,
		BankID:      bank.ID,
	})
	if err != nil {
		common.LogError(err, "bot failed to record transaction", common.Fields{
			"chat_id": c.Chat().ID,
			"bank_id": bank.ID,
		})
		return c.Reply("Could not record that, sorry.")
	}

	updated, err := b.engine.GetBank(ctx, bank.ID)
	if err != nil {
		return c.Reply("Recorded, but could not read the balance back.")
	}

	reply := fmt.Sprintf("Recorded %s against %s. Balance: %s",
		txn.Amount, bank.Name, updated.Balance)
	if txn.LoanID != "" {
		reply += fmt.Sprintf("\nLoan of %s created for %s.", txn.Amount, txn.Owner)
	}
	return c.Reply(reply)
}

func (b *Bot) handleBalance(c tele.Context) error {
	banks, err := b.engine.ListBanks(context.Background())
	if err != nil {
		return c.Reply("Could not read balances.")
	}
	if len(banks) == 0 {
		return c.Reply("No banks yet.")
	}

	var sb strings.Builder
	for _, bank := range banks {
		fmt.Fprintf(&sb, "%s: %s\n", bank.Name, bank.Balance)
	}
	return c.Reply(sb.String())
}

func (b *Bot) handleLoans(c tele.Context) error {
	loans, err := b.engine.ListLoans(context.Background(), false)
	if err != nil {
		return c.Reply("Could not read loans.")
	}
	if len(loans) == 0 {
		return c.Reply("No open loans.")
	}

	var sb strings.Builder
	for _, loan := range loans {
		fmt.Fprintf(&sb, "%s owes %s (of %s)\n", loan.Borrower, loan.Outstanding, loan.Principal)
	}
	return c.Reply(sb.String())
}

func (b *Bot) handleDashboard(c tele.Context) error {
	summary, err := b.engine.Snapshot(context.Background())
	if err != nil {
		return c.Reply("Could not build the dashboard.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Bank balance: %s\n", summary.TotalBalance)
	fmt.Fprintf(&sb, "Card outstanding: %s\n", summary.CardOutstanding)
	fmt.Fprintf(&sb, "Loans receivable: %s (%d open)\n", summary.LoanReceivable, summary.OpenLoans)
	fmt.Fprintf(&sb, "IPO funds on hold: %s (%d pending)\n", summary.IPOFundsOnHold, summary.PendingIPOs)
	return c.Reply(sb.String())
}

// findBank matches an alias against bank names, case-insensitively,
// preferring exact matches over prefixes.
func (b *Bot) findBank(ctx context.Context, alias string) (*model.Bank, error) {
	if strings.TrimSpace(alias) == "" {
		return nil, fmt.Errorf("no account given and no default configured")
	}

	banks, err := b.engine.ListBanks(ctx)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(alias)
	var prefix *model.Bank
	for i := range banks {
		name := strings.ToLower(banks[i].Name)
		if name == lower || banks[i].ID == alias {
			return &banks[i], nil
		}
		if prefix == nil && strings.HasPrefix(name, lower) {
			prefix = &banks[i]
		}
	}
	if prefix != nil {
		return prefix, nil
	}
	return nil, fmt.Errorf("no bank matching %q", alias)
}
