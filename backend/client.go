package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-attendance/core"
)

const (
	EndpointHealth     = "/api/health"
	EndpointUsers      = "/api/users"
	EndpointCourses    = "/api/courses"
	EndpointAttendance = "/api/attendance"
	EndpointStats      = "/api/stats"
	EndpointActivities = "/api/activities"

	EndpointDeviceAttendance = "/api/device/attendance"

	// HeaderDeviceKey carries the shared key a scanner device authenticates with.
	HeaderDeviceKey = "X-API-Key"
)

// Caller performs one authenticated API call and decodes the body into out.
// *core.Client satisfies it.
type Caller interface {
	Do(ctx context.Context, endpoint string, opts core.RequestOptions, out any) error
}

type Client struct {
	caller Caller
}

func NewClient(caller Caller) (*Client, error) {
	if caller == nil {
		return nil, fmt.Errorf("backend: caller is required")
	}
	return &Client{caller: caller}, nil
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.caller.Do(ctx, EndpointHealth, core.RequestOptions{}, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	out := []User{}
	if err := c.caller.Do(ctx, EndpointUsers, core.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, user NewUser) (CreateUserResult, error) {
	if err := user.Validate(); err != nil {
		return CreateUserResult{}, err
	}
	var out CreateUserResult
	err := c.post(ctx, EndpointUsers, user.Normalize(), &out)
	return out, err
}

func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	out := []Course{}
	if err := c.caller.Do(ctx, EndpointCourses, core.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCourse(ctx context.Context, course NewCourse) (CreateCourseResult, error) {
	if err := course.Validate(); err != nil {
		return CreateCourseResult{}, err
	}
	var out CreateCourseResult
	err := c.post(ctx, EndpointCourses, course.Normalize(), &out)
	return out, err
}

func (c *Client) ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	out := []AttendanceRecord{}
	if err := c.caller.Do(ctx, EndpointAttendance, core.RequestOptions{Query: filter.query()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordAttendance registers a fingerprint scan. The server picks the course
// from its schedule.
func (c *Client) RecordAttendance(ctx context.Context, fingerprintID int) (RecordAttendanceResult, error) {
	if err := validateFingerprintID(fingerprintID); err != nil {
		return RecordAttendanceResult{}, err
	}
	var out RecordAttendanceResult
	err := c.post(ctx, EndpointAttendance, map[string]int{"fingerprint_id": fingerprintID}, &out)
	return out, err
}

// RecordDeviceAttendance registers a scan on behalf of a fingerprint device.
// The request carries deviceKey instead of the signed in user's token, so it
// works without a session.
func (c *Client) RecordDeviceAttendance(ctx context.Context, deviceKey string, fingerprintID int) (RecordAttendanceResult, error) {
	if err := validateDeviceKey(deviceKey); err != nil {
		return RecordAttendanceResult{}, err
	}
	if err := validateFingerprintID(fingerprintID); err != nil {
		return RecordAttendanceResult{}, err
	}
	body, err := core.JSONBody(map[string]int{"fingerprint_id": fingerprintID})
	if err != nil {
		return RecordAttendanceResult{}, err
	}
	var out RecordAttendanceResult
	err = c.caller.Do(ctx, EndpointDeviceAttendance, core.RequestOptions{
		Method:          http.MethodPost,
		Body:            body,
		Headers:         map[string]string{HeaderDeviceKey: strings.TrimSpace(deviceKey)},
		Unauthenticated: true,
	}, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := c.caller.Do(ctx, EndpointStats, core.RequestOptions{}, &out)
	return out, err
}

func (c *Client) Activities(ctx context.Context) ([]Activity, error) {
	out := []Activity{}
	if err := c.caller.Do(ctx, EndpointActivities, core.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Dashboard loads the statistics and the recent activity feed.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	stats, err := c.Stats(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	activities, err := c.Activities(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Stats: stats, Activities: activities}, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := core.JSONBody(payload)
	if err != nil {
		return err
	}
	return c.caller.Do(ctx, endpoint, core.RequestOptions{Method: http.MethodPost, Body: body}, out)
}
