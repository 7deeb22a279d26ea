package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SlogHandler forwards slog records into a Logger. Libraries that only accept
// *slog.Logger (the software rasterizer) log through it.
type SlogHandler struct {
	logger Logger
	attrs  []slog.Attr
	group  string
}

func NewSlog(l Logger) *slog.Logger {
	return slog.New(&SlogHandler{logger: OrNop(l)})
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level < slog.LevelInfo {
		return h.logger.DebugEnabled()
	}
	return true
}

func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(&b, " %s=%v", key, a.Value)
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	msg := b.String()
	switch {
	case r.Level >= slog.LevelError:
		h.logger.Errorf("%s", msg)
	case r.Level >= slog.LevelWarn:
		h.logger.Warnf("%s", msg)
	case r.Level >= slog.LevelInfo:
		h.logger.Infof("%s", msg)
	default:
		h.logger.Debugf("%s", msg)
	}
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &SlogHandler{logger: h.logger, attrs: merged, group: h.group}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	g := name
	if h.group != "" {
		g = h.group + "." + name
	}
	return &SlogHandler{logger: h.logger, attrs: h.attrs, group: g}
}
