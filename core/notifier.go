package core

import (
	"context"
	"strings"
	"sync"
)

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notice) {}

// LogNotifier forwards notices to a logger, error notices at error level.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) Notify(ctx context.Context, notice Notice) {
	if n.Logger == nil || strings.TrimSpace(notice.Message) == "" {
		return
	}
	logger := n.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := flattenFields(notice.Metadata)
	switch notice.Level {
	case NoticeError:
		logger.Error(notice.Message, args...)
	case NoticeWarning:
		logger.Warn(notice.Message, args...)
	default:
		logger.Info(notice.Message, args...)
	}
}

// RecordingNotifier keeps every notice in memory.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *RecordingNotifier) Notify(_ context.Context, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	notice.Metadata = cloneFields(notice.Metadata)
	n.notices = append(n.notices, notice)
}

func (n *RecordingNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

var (
	_ Notifier = NopNotifier{}
	_ Notifier = LogNotifier{}
	_ Notifier = (*RecordingNotifier)(nil)
)
