package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kdsk0521/lorekeeper/game"
	"github.com/kdsk0521/lorekeeper/internal/channelruntime/telegram"
	"github.com/kdsk0521/lorekeeper/internal/logutil"
	"github.com/kdsk0521/lorekeeper/internal/statepaths"
	"github.com/kdsk0521/lorekeeper/narrator"
	"github.com/kdsk0521/lorekeeper/providers/openai"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram storyteller until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}

			token := strings.TrimSpace(viper.GetString("telegram.token"))
			if token == "" {
				return fmt.Errorf("telegram.token is required (flag, config, or %s_TELEGRAM_TOKEN)", envPrefix)
			}

			sessions := game.NewStore(statepaths.SessionsDir(), logger)
			texts := game.NewTextStore(statepaths.LoreDir())

			var story *narrator.Narrator
			apiKey := strings.TrimSpace(viper.GetString("llm.api_key"))
			if apiKey == "" {
				logger.Warn("llm_api_key_missing", "detail", "running without a narrator; turns are recorded only")
			} else {
				client := openai.New(
					viper.GetString("llm.endpoint"),
					apiKey,
					viper.GetDuration("llm.request_timeout"),
				)
				story = narrator.New(narrator.Options{
					Client:   client,
					Model:    viper.GetString("llm.model"),
					Logger:   logger,
					Attempts: viper.GetInt("llm.retry_attempts"),
					Backoff:  viper.GetDuration("llm.retry_backoff"),
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("serve_start",
				"state_dir", statepaths.StateDir(),
				"model", viper.GetString("llm.model"),
			)

			err = telegram.Run(ctx, telegram.Options{
				Token:              token,
				BaseURL:            viper.GetString("telegram.base_url"),
				PollTimeout:        viper.GetDuration("telegram.poll_timeout"),
				MaxConcurrency:     viper.GetInt("telegram.max_concurrency"),
				QueueSize:          viper.GetInt("telegram.queue_size"),
				AllowedChatIDs:     allowedChatIDsFromViper(),
				AttachmentMaxBytes: viper.GetInt64("telegram.attachment_max_bytes"),
				Logger:             logger,
				Sessions:           sessions,
				Texts:              texts,
				Narrator:           story,
			})
			if err != nil && ctx.Err() != nil {
				logger.Info("serve_stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().String("token", "", "Telegram bot token.")
	_ = viper.BindPFlag("telegram.token", cmd.Flags().Lookup("token"))
	cmd.Flags().Int64Slice("allowed-chat-id", nil, "Restrict to these chat IDs (repeatable; empty allows all).")
	_ = viper.BindPFlag("telegram.allowed_chat_ids", cmd.Flags().Lookup("allowed-chat-id"))

	return cmd
}

func allowedChatIDsFromViper() []int64 {
	raw := viper.GetIntSlice("telegram.allowed_chat_ids")
	ids := make([]int64, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, int64(id))
	}
	return ids
}
