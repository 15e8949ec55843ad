package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"telegram-chat-log/internal/domain"
)

func newDialogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialogs",
		Short: "Показать доступные чаты и их ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			dialogs, err := s.sources.Chat.Dialogs(ctx)
			if err != nil {
				return err
			}
			return printDialogs(cmd.OutOrStdout(), dialogs)
		},
	}
}

// printDialogs печатает таблицу ID и названий с выравниванием колонки ID.
func printDialogs(w io.Writer, dialogs []domain.Dialog) error {
	width := runewidth.StringWidth("ID")
	for _, d := range dialogs {
		width = max(width, runewidth.StringWidth(strconv.FormatInt(d.ID, 10)))
	}

	if _, err := fmt.Fprintf(w, "%s  %s\n", runewidth.FillLeft("ID", width), "Название"); err != nil {
		return err
	}
	for _, d := range dialogs {
		if _, err := fmt.Fprintf(w, "%s  %s\n", runewidth.FillLeft(strconv.FormatInt(d.ID, 10), width), d.Title); err != nil {
			return err
		}
	}
	return nil
}
