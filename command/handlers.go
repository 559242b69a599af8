package command

import (
	"context"

	"github.com/goliatone/go-attendance/backend"
	"github.com/goliatone/go-attendance/core"
	gocmd "github.com/goliatone/go-command"
)

type MutatingService interface {
	CreateUser(ctx context.Context, user backend.NewUser) (backend.CreateUserResult, error)
	CreateCourse(ctx context.Context, course backend.NewCourse) (backend.CreateCourseResult, error)
	RecordAttendance(ctx context.Context, fingerprintID int) (backend.RecordAttendanceResult, error)
	RecordDeviceAttendance(ctx context.Context, deviceKey string, fingerprintID int) (backend.RecordAttendanceResult, error)
}

type SessionService interface {
	SignIn(ctx context.Context, email string, password string) (core.Account, error)
	SignUp(ctx context.Context, email string, password string, displayName string) (core.Account, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
}

type CreateUserCommand struct {
	service MutatingService
}

func NewCreateUserCommand(service MutatingService) *CreateUserCommand {
	return &CreateUserCommand{service: service}
}

func (c *CreateUserCommand) Execute(ctx context.Context, msg CreateUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: user service is required")
	}
	out, err := c.service.CreateUser(ctx, msg.User)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateCourseCommand struct {
	service MutatingService
}

func NewCreateCourseCommand(service MutatingService) *CreateCourseCommand {
	return &CreateCourseCommand{service: service}
}

func (c *CreateCourseCommand) Execute(ctx context.Context, msg CreateCourseMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: course service is required")
	}
	out, err := c.service.CreateCourse(ctx, msg.Course)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RecordAttendanceCommand struct {
	service MutatingService
}

func NewRecordAttendanceCommand(service MutatingService) *RecordAttendanceCommand {
	return &RecordAttendanceCommand{service: service}
}

func (c *RecordAttendanceCommand) Execute(ctx context.Context, msg RecordAttendanceMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: attendance service is required")
	}
	out, err := c.service.RecordAttendance(ctx, msg.FingerprintID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RecordDeviceAttendanceCommand struct {
	service MutatingService
}

func NewRecordDeviceAttendanceCommand(service MutatingService) *RecordDeviceAttendanceCommand {
	return &RecordDeviceAttendanceCommand{service: service}
}

func (c *RecordDeviceAttendanceCommand) Execute(ctx context.Context, msg RecordDeviceAttendanceMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: attendance service is required")
	}
	out, err := c.service.RecordDeviceAttendance(ctx, msg.DeviceKey, msg.FingerprintID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SignInCommand struct {
	session SessionService
}

func NewSignInCommand(session SessionService) *SignInCommand {
	return &SignInCommand{session: session}
}

func (c *SignInCommand) Execute(ctx context.Context, msg SignInMessage) error {
	if c == nil || c.session == nil {
		return commandDependencyError("command: session service is required")
	}
	out, err := c.session.SignIn(ctx, msg.Email, msg.Password)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SignUpCommand struct {
	session SessionService
}

func NewSignUpCommand(session SessionService) *SignUpCommand {
	return &SignUpCommand{session: session}
}

func (c *SignUpCommand) Execute(ctx context.Context, msg SignUpMessage) error {
	if c == nil || c.session == nil {
		return commandDependencyError("command: session service is required")
	}
	out, err := c.session.SignUp(ctx, msg.Email, msg.Password, msg.DisplayName)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SignOutCommand struct {
	session SessionService
}

func NewSignOutCommand(session SessionService) *SignOutCommand {
	return &SignOutCommand{session: session}
}

func (c *SignOutCommand) Execute(ctx context.Context, _ SignOutMessage) error {
	if c == nil || c.session == nil {
		return commandDependencyError("command: session service is required")
	}
	return c.session.SignOut(ctx)
}

type SendPasswordResetCommand struct {
	session SessionService
}

func NewSendPasswordResetCommand(session SessionService) *SendPasswordResetCommand {
	return &SendPasswordResetCommand{session: session}
}

func (c *SendPasswordResetCommand) Execute(ctx context.Context, msg SendPasswordResetMessage) error {
	if c == nil || c.session == nil {
		return commandDependencyError("command: session service is required")
	}
	return c.session.SendPasswordReset(ctx, msg.Email)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
