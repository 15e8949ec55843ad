package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"telegram-chat-log/internal/telegram"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Авторизовать сессии MTProto в терминале",
		Long:  "Проходит вход по номеру телефона и коду для каждой сессии из telegram_api и сохраняет файлы сессий.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			servers := cfg.GetTelegramServers()
			if len(servers) == 0 {
				return errors.New("в конфигурации нет сессий telegram_api")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			for _, srv := range servers {
				client := telegram.NewClient(telegram.Config{
					APIID:       srv.APIID,
					APIHash:     srv.APIHash,
					PhoneNumber: srv.PhoneNumber,
					SessionPath: srv.SessionFile,
					PageSize:    cfg.TelegramAPI.PageSize,
				}, telegram.WithLogger(logger.With("component", "login")))

				if err := client.Login(ctx); err != nil {
					return fmt.Errorf("вход для сессии %s: %w", srv.SessionFile, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Сессия сохранена: %s\n", srv.SessionFile)
			}
			return nil
		},
	}
}
