package sqlstore

import "github.com/goliatone/go-attendance/core"

var _ core.SessionStore = (*SessionStore)(nil)
