package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"telegram-chat-log/internal/adapters/exporter"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Сохранить последние сообщения чата в XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkLimitFlag(cmd, "limit"); err != nil {
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

			limit, _ := cmd.Flags().GetInt("limit")
			if !cmd.Flags().Changed("limit") {
				limit = s.cfg.Chat.HistoryLimit
			}
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = fmt.Sprintf("chat_%d.xlsx", chatID)
			}

			messages, err := s.history.FetchHistory(ctx, chatID, limit)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := exporter.NewExcelExporter(f, time.Local).Export(messages); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close output file: %w", err)
			}

			s.log.Info("Export finished", "chat_id", chatID, "messages", len(messages), "file", output)
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Сколько последних сообщений выгрузить; по умолчанию chat.history_limit.")
	cmd.Flags().StringP("output", "o", "", "Имя файла; по умолчанию chat_<id>.xlsx.")

	return cmd
}
