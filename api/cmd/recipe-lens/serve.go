package main

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"recipe-lens/api/internal/handle"
	"recipe-lens/api/internal/httpserver"
	"recipe-lens/api/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the Telegram bot when a token is set)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var history handle.History
	if a.repo != nil {
		history = a.repo
	}
	h := handle.New(a.svc, history, cfg.MaxUploadBytes())

	var bot *telegram.Router
	if cfg.TelegramBotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot = &telegram.Router{
			Bot:            api,
			Analyzer:       a.svc,
			MaxPhotoBytes:  cfg.MaxUploadBytes(),
			AnalyzeTimeout: cfg.DetectTimeout + cfg.GenerateTimeout,
		}
	} else {
		log.Printf("⚠️ TELEGRAM_BOT_TOKEN is empty: bot disabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(ctx, "0.0.0.0:"+cfg.Port, h.Routes())
	})
	if bot != nil {
		g.Go(func() error { return bot.Run(ctx) })
	}

	return g.Wait()
}
