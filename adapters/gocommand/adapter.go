package gocommand

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	attendance "github.com/goliatone/go-attendance"
	"github.com/goliatone/go-attendance/core"
	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
)

const domainTextCodePrefix = "ATTENDANCE_"

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return command.ValidateMessage(msg)
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

// Dispatch validates msg and routes it to the subscribed command handlers.
// Handler failures are returned as the handler produced them, not wrapped in
// the dispatcher envelope.
func Dispatch[T any](ctx context.Context, msg T) error {
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	ctx, failure := withHandlerFailure(ctx)
	return failure.resolve(commanddispatcher.Dispatch(ctx, msg))
}

// Query validates msg and routes it to the subscribed query handler.
func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	if err := ValidateMessageContract(msg); err != nil {
		var zero R
		return zero, err
	}
	ctx, failure := withHandlerFailure(ctx)
	out, err := commanddispatcher.Query[T, R](ctx, msg)
	return out, failure.resolve(err)
}

type handlerFailureKey struct{}

// handlerFailure records the last error a handler returned during a single
// Dispatch or Query call. The runner and dispatcher clone go-errors values
// when they wrap them, which replaces the text code callers match on.
type handlerFailure struct {
	mu  sync.Mutex
	err error
}

func withHandlerFailure(ctx context.Context) (context.Context, *handlerFailure) {
	if ctx == nil {
		ctx = context.Background()
	}
	failure := &handlerFailure{}
	return context.WithValue(ctx, handlerFailureKey{}, failure), failure
}

func (f *handlerFailure) record(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *handlerFailure) resolve(err error) error {
	if err == nil {
		return nil
	}
	f.mu.Lock()
	captured := f.err
	f.mu.Unlock()
	if captured != nil {
		return captured
	}
	if domain := domainError(err); domain != nil {
		return domain
	}
	return err
}

// domainError walks the unwrap chain for the innermost envelope carrying an
// attendance text code.
func domainError(err error) error {
	var found error
	for current := err; current != nil; current = errors.Unwrap(current) {
		if rich, ok := current.(*goerrors.Error); ok && strings.HasPrefix(rich.TextCode, domainTextCodePrefix) {
			found = rich
		}
	}
	return found
}

// captureHandlerFailure is installed on every runner so the raw handler
// error reaches the caller of Dispatch or Query.
func captureHandlerFailure(next func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		err := next(ctx)
		if err != nil {
			if failure, ok := ctx.Value(handlerFailureKey{}).(*handlerFailure); ok {
				failure.record(err)
			}
		}
		return err
	}
}

func withRunnerDefaults(opts []runner.Option) []runner.Option {
	out := make([]runner.Option, 0, len(opts)+2)
	out = append(out, runner.WithErrorHandler(nil), runner.WithMiddleware(captureHandlerFailure))
	return append(out, opts...)
}

// runnerLogger forwards runner diagnostics to an attendance logger. The
// runner formats its messages printf style.
type runnerLogger struct {
	logger core.Logger
}

func (l runnerLogger) Info(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

func (l runnerLogger) Error(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

// WithRunnerLogger routes handler diagnostics to logger instead of the
// standard library log package. Handler errors are logged at debug level
// since they are also returned to the caller.
func WithRunnerLogger(logger core.Logger) runner.Option {
	if logger == nil {
		return runner.WithLogger(nil)
	}
	return runner.WithLogger(runnerLogger{logger: logger})
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, withRunnerDefaults(runnerOpts)...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, withRunnerDefaults(runnerOpts)...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Registration holds the dispatcher subscriptions for a facade.
type Registration struct {
	subscriptions []commanddispatcher.Subscription
}

// Unsubscribe detaches every handler registered by RegisterFacade.
func (r *Registration) Unsubscribe() {
	if r == nil {
		return
	}
	for _, sub := range r.subscriptions {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
	r.subscriptions = nil
}

// RegisterFacade subscribes every facade command and query on the
// go-command dispatcher so callers can route messages by type. The registry
// is initialized before returning.
func RegisterFacade(adapter *RegistryAdapter, facade *attendance.Facade, runnerOpts ...runner.Option) (*Registration, error) {
	if facade == nil {
		return nil, fmt.Errorf("gocommand: facade is required")
	}
	reg := &Registration{}
	keep := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			return err
		}
		reg.subscriptions = append(reg.subscriptions, sub)
		return nil
	}

	commands := facade.Commands()
	queries := facade.Queries()
	steps := []func() error{
		func() error { return keep(RegisterAndSubscribe(adapter, commands.CreateUser, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribe(adapter, commands.CreateCourse, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribe(adapter, commands.RecordAttendance, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribe(adapter, commands.RecordDeviceAttendance, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribe(adapter, commands.SignIn, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribe(adapter, commands.SignUp, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribe(adapter, commands.SignOut, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribe(adapter, commands.SendPasswordReset, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribeQuery(adapter, queries.Health, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribeQuery(adapter, queries.ListUsers, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribeQuery(adapter, queries.ListCourses, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribeQuery(adapter, queries.ListAttendance, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribeQuery(adapter, queries.Stats, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribeQuery(adapter, queries.Activities, runnerOpts...)) },
		func() error { return keep(RegisterAndSubscribeQuery(adapter, queries.Dashboard, runnerOpts...)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			reg.Unsubscribe()
			return nil, err
		}
	}
	if err := adapter.Initialize(); err != nil {
		reg.Unsubscribe()
		return nil, err
	}
	return reg, nil
}
