package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	env := defaultEnv()
	err := newRootCommand(env).ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(env.stderr, err)
		os.Exit(1)
	}
}
