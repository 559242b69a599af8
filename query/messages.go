package query

import "github.com/goliatone/go-attendance/backend"

const (
	TypeHealth         = "attendance.query.health"
	TypeListUsers      = "attendance.query.user.list"
	TypeListCourses    = "attendance.query.course.list"
	TypeListAttendance = "attendance.query.attendance.list"
	TypeStats          = "attendance.query.stats"
	TypeActivities     = "attendance.query.activity.list"
	TypeDashboard      = "attendance.query.dashboard"
)

type HealthMessage struct{}

func (HealthMessage) Type() string { return TypeHealth }

type ListUsersMessage struct{}

func (ListUsersMessage) Type() string { return TypeListUsers }

type ListCoursesMessage struct{}

func (ListCoursesMessage) Type() string { return TypeListCourses }

type ListAttendanceMessage struct {
	Filter backend.AttendanceFilter
}

func (ListAttendanceMessage) Type() string { return TypeListAttendance }

func (m ListAttendanceMessage) Validate() error {
	return m.Filter.Validate()
}

type StatsMessage struct{}

func (StatsMessage) Type() string { return TypeStats }

type ActivitiesMessage struct{}

func (ActivitiesMessage) Type() string { return TypeActivities }

type DashboardMessage struct{}

func (DashboardMessage) Type() string { return TypeDashboard }
