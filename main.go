/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/kanvas/engine"
	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/platform/desktop"
	"github.com/spaghettifunk/kanvas/testbed"
)

func main() {
	cfg := engine.DefaultConfig()
	// optional path to a TOML config file
	if len(os.Args) > 1 {
		c, err := engine.LoadConfig(os.Args[1])
		if err != nil {
			core.LogFatal("cannot load config: %s", err)
		}
		cfg = c
	}

	host := desktop.New("Kanvas Testbed", 1280, 720, cfg.Context)
	tb := testbed.NewTestGame(host, cfg)

	tb.Events().Register(core.EVENT_CODE_APPLICATION_QUIT, func(core.EventContext) bool {
		host.Loop().Quit()
		return true
	})

	host.Loop().Post(func() {
		if err := tb.Init(); err != nil {
			core.LogError("cannot initialize testbed: %s", err)
			host.Loop().Quit()
			return
		}
		tb.Start()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		cancel()
	}()

	// run engine
	if err := host.Run(ctx); err != nil && ctx.Err() == nil {
		core.LogError("host stopped: %s", err)
	}

	// the loop is done, nothing else touches the application now
	if err := tb.Destroy(); err != nil {
		core.LogError("%s", err)
	}
}
