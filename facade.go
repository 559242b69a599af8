package attendance

import (
	"fmt"

	attendancecommand "github.com/goliatone/go-attendance/command"
	attendancequery "github.com/goliatone/go-attendance/query"
)

type BackendService interface {
	attendancecommand.MutatingService
	attendancequery.HealthReader
	attendancequery.DirectoryReader
	attendancequery.AttendanceReader
	attendancequery.DashboardReader
}

type Commands struct {
	CreateUser             *attendancecommand.CreateUserCommand
	CreateCourse           *attendancecommand.CreateCourseCommand
	RecordAttendance       *attendancecommand.RecordAttendanceCommand
	RecordDeviceAttendance *attendancecommand.RecordDeviceAttendanceCommand
	SignIn                 *attendancecommand.SignInCommand
	SignUp                 *attendancecommand.SignUpCommand
	SignOut                *attendancecommand.SignOutCommand
	SendPasswordReset      *attendancecommand.SendPasswordResetCommand
}

type Queries struct {
	Health         *attendancequery.HealthQuery
	ListUsers      *attendancequery.ListUsersQuery
	ListCourses    *attendancequery.ListCoursesQuery
	ListAttendance *attendancequery.ListAttendanceQuery
	Stats          *attendancequery.StatsQuery
	Activities     *attendancequery.ActivitiesQuery
	Dashboard      *attendancequery.DashboardQuery
}

type Facade struct {
	service  BackendService
	session  attendancecommand.SessionService
	commands Commands
	queries  Queries
}

func NewFacade(service BackendService, session attendancecommand.SessionService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("attendance: backend service is required")
	}
	if session == nil {
		return nil, fmt.Errorf("attendance: session service is required")
	}

	facade := &Facade{service: service, session: session}
	facade.commands = Commands{
		CreateUser:             attendancecommand.NewCreateUserCommand(service),
		CreateCourse:           attendancecommand.NewCreateCourseCommand(service),
		RecordAttendance:       attendancecommand.NewRecordAttendanceCommand(service),
		RecordDeviceAttendance: attendancecommand.NewRecordDeviceAttendanceCommand(service),
		SignIn:                 attendancecommand.NewSignInCommand(session),
		SignUp:                 attendancecommand.NewSignUpCommand(session),
		SignOut:                attendancecommand.NewSignOutCommand(session),
		SendPasswordReset:      attendancecommand.NewSendPasswordResetCommand(session),
	}
	facade.queries = Queries{
		Health:         attendancequery.NewHealthQuery(service),
		ListUsers:      attendancequery.NewListUsersQuery(service),
		ListCourses:    attendancequery.NewListCoursesQuery(service),
		ListAttendance: attendancequery.NewListAttendanceQuery(service),
		Stats:          attendancequery.NewStatsQuery(service),
		Activities:     attendancequery.NewActivitiesQuery(service),
		Dashboard:      attendancequery.NewDashboardQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() BackendService {
	if f == nil {
		return nil
	}
	return f.service
}
