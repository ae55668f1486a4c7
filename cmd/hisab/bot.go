package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hisablabs/hisab/internal/bot"
	"github.com/hisablabs/hisab/internal/cli"
)

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Long: `Run the Telegram bot until interrupted. Messages like "250 groceries
@raj #hdfc" become transactions; /balance, /loans, and /dashboard
report state. Configure telegram.token and telegram.allowed_chat_ids
in the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cfg := bot.Config{
				Token:          viper.GetString("telegram.token"),
				DefaultAccount: viper.GetString("telegram.default_account"),
				PollTimeout:    viper.GetDuration("telegram.poll_timeout"),
			}
			for _, id := range viper.GetIntSlice("telegram.allowed_chat_ids") {
				cfg.AllowedChatIDs = append(cfg.AllowedChatIDs, int64(id))
			}
			if cfg.PollTimeout == 0 {
				cfg.PollTimeout = 10 * time.Second
			}

			b, err := bot.New(eng, cfg)
			if err != nil {
				return fmt.Errorf("failed to start bot: %w", err)
			}

			fmt.Println(cli.InfoStyle.Render("Bot running. Press Ctrl+C to stop."))
			b.Start(ctx)
			return nil
		},
	}
}
