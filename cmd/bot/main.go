package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"remindbot/internal/core"
	"remindbot/pkg/systemd"
	"remindbot/plugins/alerts"
	"remindbot/plugins/tasks"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config file (json or yaml)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := core.NewApp(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	app.Register(
		alerts.New(),
		tasks.New(),
	)

	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}

	systemd.NotifyReady()
	go systemd.RunWatchdog(ctx)

	<-ctx.Done()
	systemd.NotifyStopping()
	app.Stop(context.Background())
}
