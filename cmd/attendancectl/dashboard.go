package main

import (
	"context"

	"github.com/goliatone/go-attendance/backend"
	attendancequery "github.com/goliatone/go-attendance/query"
	"github.com/spf13/cobra"
)

// newReadCommand builds an argument-less command that prints what run returns.
func newReadCommand(rt *cliRuntime, use string, short string, run func(context.Context) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			value, err := run(cmd.Context())
			if err != nil {
				return err
			}
			return out.print(value)
		},
	}
}

func newStatsCommand(rt *cliRuntime) *cobra.Command {
	return newReadCommand(rt, "stats", "Show user, course and daily attendance counts",
		func(ctx context.Context) (any, error) {
			return query[attendancequery.StatsMessage, backend.Stats](ctx, attendancequery.StatsMessage{})
		})
}

func newActivitiesCommand(rt *cliRuntime) *cobra.Command {
	return newReadCommand(rt, "activities", "Show recent activity",
		func(ctx context.Context) (any, error) {
			return query[attendancequery.ActivitiesMessage, []backend.Activity](ctx, attendancequery.ActivitiesMessage{})
		})
}

func newDashboardCommand(rt *cliRuntime) *cobra.Command {
	return newReadCommand(rt, "dashboard", "Show stats and recent activity together",
		func(ctx context.Context) (any, error) {
			return query[attendancequery.DashboardMessage, backend.Dashboard](ctx, attendancequery.DashboardMessage{})
		})
}

func newHealthCommand(rt *cliRuntime) *cobra.Command {
	return newReadCommand(rt, "health", "Check that the attendance API is reachable",
		func(ctx context.Context) (any, error) {
			return query[attendancequery.HealthMessage, backend.Health](ctx, attendancequery.HealthMessage{})
		})
}
