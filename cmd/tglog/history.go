package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"telegram-chat-log/internal/adapters/exporter"
	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
)

const (
	formatConsole = "console"
	formatJSON    = "json"
	formatXLSX    = "xlsx"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Загрузить последние сообщения чата",
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
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			messages, err := s.history.FetchHistory(ctx, chatID, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeHistory(w, format, messages)
		},
	}

	cmd.Flags().Int("limit", 0, "Сколько последних сообщений загрузить; по умолчанию chat.history_limit.")
	cmd.Flags().String("format", formatConsole, "Формат вывода: console, json или xlsx.")
	cmd.Flags().StringP("output", "o", "", "Файл для вывода; по умолчанию stdout.")

	return cmd
}

// writeHistory выводит пакет сообщений в выбранном формате.
func writeHistory(w io.Writer, format string, messages []domain.NormalizedMessage) error {
	var exp ports.Exporter
	switch format {
	case formatConsole:
		exp = exporter.NewConsoleExporter(exporter.WithWriter(w))
	case formatXLSX:
		exp = exporter.NewExcelExporter(w, time.Local)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if messages == nil {
			messages = []domain.NormalizedMessage{}
		}
		return enc.Encode(messages)
	default:
		return fmt.Errorf("неизвестный формат %q", format)
	}
	return exp.Export(messages)
}
