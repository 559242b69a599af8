package backend

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-attendance/core"
	goerrors "github.com/goliatone/go-errors"
)

func validationError(message string, fields []goerrors.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return goerrors.NewValidation(message, fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorBadInput)
}

// Normalize trims the fields and applies the default role.
func (u NewUser) Normalize() NewUser {
	out := u
	out.Name = strings.TrimSpace(out.Name)
	out.Email = strings.TrimSpace(out.Email)
	out.Role = strings.ToLower(strings.TrimSpace(out.Role))
	if out.Role == "" {
		out.Role = RoleUser
	}
	return out
}

func (u NewUser) Validate() error {
	normalized := u.Normalize()
	var fields []goerrors.FieldError
	if normalized.Email == "" {
		fields = append(fields, goerrors.FieldError{Field: "email", Message: "email is required"})
	} else if !strings.Contains(normalized.Email, "@") {
		fields = append(fields, goerrors.FieldError{Field: "email", Message: "email is invalid", Value: normalized.Email})
	}
	if normalized.Password == "" {
		fields = append(fields, goerrors.FieldError{Field: "password", Message: "password is required"})
	}
	switch normalized.Role {
	case RoleUser, RoleAdmin, RoleTeacher:
	default:
		fields = append(fields, goerrors.FieldError{Field: "role", Message: "role must be user, admin or teacher", Value: normalized.Role})
	}
	if normalized.FingerprintID < 0 {
		fields = append(fields, goerrors.FieldError{Field: "fingerprint_id", Message: "fingerprint id must be positive", Value: normalized.FingerprintID})
	}
	return validationError("backend: invalid user", fields)
}

func (c NewCourse) Normalize() NewCourse {
	out := c
	out.Code = strings.TrimSpace(out.Code)
	out.Name = strings.TrimSpace(out.Name)
	out.Schedule = strings.TrimSpace(out.Schedule)
	out.Description = strings.TrimSpace(out.Description)
	return out
}

func (c NewCourse) Validate() error {
	normalized := c.Normalize()
	var fields []goerrors.FieldError
	if normalized.Code == "" {
		fields = append(fields, goerrors.FieldError{Field: "code", Message: "code is required"})
	}
	if normalized.Name == "" {
		fields = append(fields, goerrors.FieldError{Field: "name", Message: "name is required"})
	}
	return validationError("backend: invalid course", fields)
}

func (f AttendanceFilter) Validate() error {
	var fields []goerrors.FieldError
	if date := strings.TrimSpace(f.Date); date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			fields = append(fields, goerrors.FieldError{Field: "date", Message: "date must use YYYY-MM-DD", Value: date})
		}
	}
	return validationError("backend: invalid attendance filter", fields)
}

func (f AttendanceFilter) query() map[string]string {
	query := map[string]string{}
	if date := strings.TrimSpace(f.Date); date != "" {
		query["date"] = date
	}
	if courseID := strings.TrimSpace(f.CourseID); courseID != "" {
		query["course_id"] = courseID
	}
	return query
}

func validateDeviceKey(deviceKey string) error {
	if strings.TrimSpace(deviceKey) != "" {
		return nil
	}
	return validationError("backend: invalid device request", []goerrors.FieldError{{
		Field:   "device_key",
		Message: "device key is required",
	}})
}

func validateFingerprintID(fingerprintID int) error {
	if fingerprintID > 0 {
		return nil
	}
	return validationError("backend: invalid attendance record", []goerrors.FieldError{{
		Field:   "fingerprint_id",
		Message: "fingerprint id must be positive",
		Value:   fingerprintID,
	}})
}
