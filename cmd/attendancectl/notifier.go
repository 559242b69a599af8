package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-attendance/core"
	"github.com/muesli/termenv"
)

// termNotifier prints notices to the terminal, colored when supported.
type termNotifier struct {
	out *termenv.Output
}

func newTermNotifier(w io.Writer) *termNotifier {
	return &termNotifier{out: termenv.NewOutput(w)}
}

func (n *termNotifier) Notify(_ context.Context, notice core.Notice) {
	message := strings.TrimSpace(notice.Message)
	if n == nil || message == "" {
		return
	}
	prefix, color := "info", "12"
	switch notice.Level {
	case core.NoticeError:
		prefix, color = "error", "9"
	case core.NoticeWarning:
		prefix, color = "warning", "11"
	case core.NoticeSuccess:
		prefix, color = "ok", "10"
	}
	label := n.out.String(prefix + ":").Foreground(n.out.Color(color)).Bold()
	fmt.Fprintf(n.out, "%s %s\n", label, message)
}

var _ core.Notifier = (*termNotifier)(nil)
