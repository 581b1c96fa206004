// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/internal/app"
	"github.com/keshon/compagnon/internal/discord"
)

func main() {
	a, err := app.Load()
	if err != nil {
		log.Fatal("startup failed", "err", err)
	}
	defer a.Close()
	a.Logger.Info("starting compagnon bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.StartStatus(ctx)
	bot := discord.NewBot(a.Config, a.Engine, a.Logger.WithPrefix("discord"))

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		a.Logger.Info("received signal, shutting down", "signal", s)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			a.Logger.Error("discord bot error", "err", err)
		}
		cancel()
	}

	a.Logger.Info("discord bot exited cleanly")
}
