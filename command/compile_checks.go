package command

import (
	"github.com/goliatone/go-attendance/backend"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Commander[CreateUserMessage]             = (*CreateUserCommand)(nil)
	_ gocmd.Commander[CreateCourseMessage]           = (*CreateCourseCommand)(nil)
	_ gocmd.Commander[RecordAttendanceMessage]       = (*RecordAttendanceCommand)(nil)
	_ gocmd.Commander[RecordDeviceAttendanceMessage] = (*RecordDeviceAttendanceCommand)(nil)
	_ gocmd.Commander[SignInMessage]                 = (*SignInCommand)(nil)
	_ gocmd.Commander[SignUpMessage]                 = (*SignUpCommand)(nil)
	_ gocmd.Commander[SignOutMessage]                = (*SignOutCommand)(nil)
	_ gocmd.Commander[SendPasswordResetMessage]      = (*SendPasswordResetCommand)(nil)
)

var _ MutatingService = (*backend.Client)(nil)
