package query

import (
	"github.com/goliatone/go-attendance/backend"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[HealthMessage, backend.Health]                     = (*HealthQuery)(nil)
	_ gocmd.Querier[ListUsersMessage, []backend.User]                  = (*ListUsersQuery)(nil)
	_ gocmd.Querier[ListCoursesMessage, []backend.Course]              = (*ListCoursesQuery)(nil)
	_ gocmd.Querier[ListAttendanceMessage, []backend.AttendanceRecord] = (*ListAttendanceQuery)(nil)
	_ gocmd.Querier[StatsMessage, backend.Stats]                       = (*StatsQuery)(nil)
	_ gocmd.Querier[ActivitiesMessage, []backend.Activity]             = (*ActivitiesQuery)(nil)
	_ gocmd.Querier[DashboardMessage, backend.Dashboard]               = (*DashboardQuery)(nil)
	_ HealthReader                                                     = (*backend.Client)(nil)
	_ DirectoryReader                                                  = (*backend.Client)(nil)
	_ AttendanceReader                                                 = (*backend.Client)(nil)
	_ DashboardReader                                                  = (*backend.Client)(nil)
)
