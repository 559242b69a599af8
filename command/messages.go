package command

import (
	"strings"

	"github.com/goliatone/go-attendance/backend"
)

const (
	TypeCreateUser             = "attendance.command.user.create"
	TypeCreateCourse           = "attendance.command.course.create"
	TypeRecordAttendance       = "attendance.command.attendance.record"
	TypeRecordDeviceAttendance = "attendance.command.attendance.device_record"
	TypeSignIn                 = "attendance.command.session.sign_in"
	TypeSignUp                 = "attendance.command.session.sign_up"
	TypeSignOut                = "attendance.command.session.sign_out"
	TypeSendPasswordReset      = "attendance.command.session.password_reset"
)

type CreateUserMessage struct {
	User backend.NewUser
}

func (CreateUserMessage) Type() string { return TypeCreateUser }

func (m CreateUserMessage) Validate() error {
	return m.User.Validate()
}

type CreateCourseMessage struct {
	Course backend.NewCourse
}

func (CreateCourseMessage) Type() string { return TypeCreateCourse }

func (m CreateCourseMessage) Validate() error {
	return m.Course.Validate()
}

type RecordAttendanceMessage struct {
	FingerprintID int
}

func (RecordAttendanceMessage) Type() string { return TypeRecordAttendance }

func (m RecordAttendanceMessage) Validate() error {
	if m.FingerprintID <= 0 {
		return commandValidationError("fingerprint_id", "fingerprint id must be positive")
	}
	return nil
}

// RecordDeviceAttendanceMessage records a scan the way a fingerprint device
// does, authenticated by DeviceKey rather than the session.
type RecordDeviceAttendanceMessage struct {
	DeviceKey     string
	FingerprintID int
}

func (RecordDeviceAttendanceMessage) Type() string { return TypeRecordDeviceAttendance }

func (m RecordDeviceAttendanceMessage) Validate() error {
	if strings.TrimSpace(m.DeviceKey) == "" {
		return commandValidationError("device_key", "device key is required")
	}
	if m.FingerprintID <= 0 {
		return commandValidationError("fingerprint_id", "fingerprint id must be positive")
	}
	return nil
}

type SignInMessage struct {
	Email    string
	Password string
}

func (SignInMessage) Type() string { return TypeSignIn }

func (m SignInMessage) Validate() error {
	if strings.TrimSpace(m.Email) == "" {
		return commandValidationError("email", "email is required")
	}
	if m.Password == "" {
		return commandValidationError("password", "password is required")
	}
	return nil
}

type SignUpMessage struct {
	Email       string
	Password    string
	DisplayName string
}

func (SignUpMessage) Type() string { return TypeSignUp }

func (m SignUpMessage) Validate() error {
	if strings.TrimSpace(m.Email) == "" {
		return commandValidationError("email", "email is required")
	}
	if m.Password == "" {
		return commandValidationError("password", "password is required")
	}
	return nil
}

type SignOutMessage struct{}

func (SignOutMessage) Type() string { return TypeSignOut }

func (SignOutMessage) Validate() error { return nil }

type SendPasswordResetMessage struct {
	Email string
}

func (SendPasswordResetMessage) Type() string { return TypeSendPasswordReset }

func (m SendPasswordResetMessage) Validate() error {
	if strings.TrimSpace(m.Email) == "" {
		return commandValidationError("email", "email is required")
	}
	return nil
}
