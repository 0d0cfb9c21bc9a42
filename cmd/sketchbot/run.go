package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/sketchbot/internal/bot"
	"github.com/edgard/sketchbot/internal/bot/handlers"
	"github.com/edgard/sketchbot/internal/bot/tasks"
	"github.com/edgard/sketchbot/internal/database"
	"github.com/edgard/sketchbot/internal/gemini"
	"github.com/edgard/sketchbot/internal/logger"
	"github.com/edgard/sketchbot/internal/portrayal"
	"github.com/edgard/sketchbot/internal/telegram"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted (default)",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	gemClient, err := gemini.NewClient(ctx, rt.cfg.Gemini, rt.cfg.LLM, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return err
	}

	dir := database.NewDirectory(rt.store, database.PlatformTelegram)
	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    rt.cfg,
		Store:     rt.store,
		Directory: dir,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewRecordHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(rt.cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return err
	}

	rt.cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	log.Info("Retrieved bot info", "bot_id", rt.cfg.Telegram.BotInfo.ID, "bot_username", rt.cfg.Telegram.BotInfo.Username)
	if err := rt.store.UpsertPerson(ctx, handlers.PersonFromUser(rt.cfg.Telegram.BotInfo)); err != nil {
		log.Warn("Failed to record bot identity", "error", err)
	}

	settings, err := portrayal.NewSettings(rt.cfg)
	if err != nil {
		return err
	}
	hDeps.Portrayal = portrayal.NewCommand(settings, portrayal.Deps{
		Messages:   rt.store,
		Persons:    dir,
		Streams:    dir,
		Portrayals: rt.store,
		LLM:        gemClient,
		Policy:     portrayal.NewPolicy(rt.cfg.Permissions),
		Texts:      rt.cfg.Messages,
		Logger:     log,
	})

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return err
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  rt.store,
		Config: rt.cfg,
	}
	sched, err := bot.NewScheduler(log, &rt.cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		return err
	}

	app := bot.NewBot(log, rt.store, tg, sched)

	log.Info("Starting bot")
	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return runErr
	}

	log.Info("Bot stopped gracefully")
	return nil
}
