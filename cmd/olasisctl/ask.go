package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/olasis/olasis-service/internal/assistant"
	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/session"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Talk to OLABOT",
	Long: `ask sends one message to OLABOT and prints the reply. Without a message it
reads one message per line from stdin and keeps the conversation going until
EOF.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")

		defaultLang, ok := domain.ParseLanguage(cfg.Assistant.DefaultLanguage)
		if !ok {
			defaultLang = domain.Spanish
		}
		bot := assistant.New(
			assistant.NewBackend(cmd.Context(), factoryConfig(), logger),
			session.NewMemoryStore(cfg.Session.TTL),
			assistant.NewWhatlangDetector(),
			assistant.Config{
				Temperature:     cfg.Assistant.Temperature,
				TopP:            cfg.Assistant.TopP,
				MaxOutputTokens: cfg.Assistant.MaxOutputTokens,
				HistoryCap:      cfg.Assistant.HistoryCap,
				DefaultLanguage: defaultLang,
				Timeout:         cfg.Assistant.Timeout,
			},
			nil, nil, logger,
		)

		sessionID := uuid.NewString()
		out := cmd.OutOrStdout()
		send := func(message string) error {
			reply, err := bot.Ask(cmd.Context(), sessionID, assistant.Request{Message: message, Lang: lang})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "[%s/%s] %s\n", reply.Lang, reply.Status, reply.Text)
			return nil
		}

		if len(args) > 0 {
			return send(strings.Join(args, " "))
		}
		return chatLoop(cmd.InOrStdin(), send)
	},
}

// chatLoop sends every non-blank line of in until EOF.
func chatLoop(in io.Reader, send func(string) error) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := send(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func init() {
	askCmd.Flags().String("lang", "", "reply language hint (en, es, pt)")
	rootCmd.AddCommand(askCmd)
}
