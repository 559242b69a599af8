package query

import (
	"context"

	"github.com/goliatone/go-attendance/backend"
)

type HealthReader interface {
	Health(ctx context.Context) (backend.Health, error)
}

type DirectoryReader interface {
	ListUsers(ctx context.Context) ([]backend.User, error)
	ListCourses(ctx context.Context) ([]backend.Course, error)
}

type AttendanceReader interface {
	ListAttendance(ctx context.Context, filter backend.AttendanceFilter) ([]backend.AttendanceRecord, error)
}

type DashboardReader interface {
	Stats(ctx context.Context) (backend.Stats, error)
	Activities(ctx context.Context) ([]backend.Activity, error)
	Dashboard(ctx context.Context) (backend.Dashboard, error)
}

type HealthQuery struct {
	reader HealthReader
}

func NewHealthQuery(reader HealthReader) *HealthQuery {
	return &HealthQuery{reader: reader}
}

func (q *HealthQuery) Query(ctx context.Context, _ HealthMessage) (backend.Health, error) {
	if q == nil || q.reader == nil {
		return backend.Health{}, queryDependencyError("query: health reader is required")
	}
	return q.reader.Health(ctx)
}

type ListUsersQuery struct {
	reader DirectoryReader
}

func NewListUsersQuery(reader DirectoryReader) *ListUsersQuery {
	return &ListUsersQuery{reader: reader}
}

func (q *ListUsersQuery) Query(ctx context.Context, _ ListUsersMessage) ([]backend.User, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: directory reader is required")
	}
	return q.reader.ListUsers(ctx)
}

type ListCoursesQuery struct {
	reader DirectoryReader
}

func NewListCoursesQuery(reader DirectoryReader) *ListCoursesQuery {
	return &ListCoursesQuery{reader: reader}
}

func (q *ListCoursesQuery) Query(ctx context.Context, _ ListCoursesMessage) ([]backend.Course, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: directory reader is required")
	}
	return q.reader.ListCourses(ctx)
}

type ListAttendanceQuery struct {
	reader AttendanceReader
}

func NewListAttendanceQuery(reader AttendanceReader) *ListAttendanceQuery {
	return &ListAttendanceQuery{reader: reader}
}

func (q *ListAttendanceQuery) Query(
	ctx context.Context,
	msg ListAttendanceMessage,
) ([]backend.AttendanceRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: attendance reader is required")
	}
	return q.reader.ListAttendance(ctx, msg.Filter)
}

type StatsQuery struct {
	reader DashboardReader
}

func NewStatsQuery(reader DashboardReader) *StatsQuery {
	return &StatsQuery{reader: reader}
}

func (q *StatsQuery) Query(ctx context.Context, _ StatsMessage) (backend.Stats, error) {
	if q == nil || q.reader == nil {
		return backend.Stats{}, queryDependencyError("query: dashboard reader is required")
	}
	return q.reader.Stats(ctx)
}

type ActivitiesQuery struct {
	reader DashboardReader
}

func NewActivitiesQuery(reader DashboardReader) *ActivitiesQuery {
	return &ActivitiesQuery{reader: reader}
}

func (q *ActivitiesQuery) Query(ctx context.Context, _ ActivitiesMessage) ([]backend.Activity, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: dashboard reader is required")
	}
	return q.reader.Activities(ctx)
}

type DashboardQuery struct {
	reader DashboardReader
}

func NewDashboardQuery(reader DashboardReader) *DashboardQuery {
	return &DashboardQuery{reader: reader}
}

func (q *DashboardQuery) Query(ctx context.Context, _ DashboardMessage) (backend.Dashboard, error) {
	if q == nil || q.reader == nil {
		return backend.Dashboard{}, queryDependencyError("query: dashboard reader is required")
	}
	return q.reader.Dashboard(ctx)
}
