package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"telegram-chat-log/internal/adapters/exporter"
	"telegram-chat-log/internal/core/services"
	"telegram-chat-log/internal/history"
)

func newTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Печатать новые сообщения чата по мере поступления",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkLimitFlag(cmd, "backfill"); err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			chatID, err := s.chatID()
			if err != nil {
				return err
			}
			stream, err := s.sources.RequireStream()
			if err != nil {
				return err
			}

			console := exporter.NewConsoleExporter(exporter.WithWriter(cmd.OutOrStdout()))

			if backfill, _ := cmd.Flags().GetInt("backfill"); backfill > 0 {
				messages, err := s.history.FetchHistory(ctx, chatID, backfill)
				if err != nil {
					return err
				}
				if err := console.Export(messages); err != nil {
					return err
				}
			}

			logger := services.NewStreamLogger(stream, history.NewBuffer(s.cfg.Chat.BufferCapacity), chatID,
				services.WithStreamLogger(s.log.With("component", "stream_logger")),
				services.WithSink(console),
			)
			if err := logger.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().Int("backfill", 0, "Сначала напечатать столько последних сообщений.")

	return cmd
}
