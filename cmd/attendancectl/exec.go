package main

import (
	"context"

	"github.com/goliatone/go-attendance/adapters/gocommand"
	gocmd "github.com/goliatone/go-command"
)

// execute dispatches msg to its registered command and returns the result
// the command stored.
func execute[M any, R any](ctx context.Context, msg M) (R, error) {
	var zero R
	collector := gocmd.NewResult[R]()
	if err := gocommand.Dispatch(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, err
	}
	out, _ := collector.Load()
	return out, nil
}

func query[M any, R any](ctx context.Context, msg M) (R, error) {
	return gocommand.Query[M, R](ctx, msg)
}
