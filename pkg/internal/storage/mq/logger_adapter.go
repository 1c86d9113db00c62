package mq

import (
	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter 把 watermill 的日志写入应用的 zerolog，并带上 component=mq.
type zerologAdapter struct {
	l *zerolog.Logger
}

func newZerologAdapter(base *zerolog.Logger) *zerologAdapter {
	l := base.With().Str("component", "mq").Logger()
	return &zerologAdapter{l: &l}
}

func withFields(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}

	return ev
}

func (z *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	withFields(z.l.Error().Err(err), fields).Msg(msg)
}

func (z *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	withFields(z.l.Info(), fields).Msg(msg)
}

func (z *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	withFields(z.l.Debug(), fields).Msg(msg)
}

func (z *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	withFields(z.l.Trace(), fields).Msg(msg)
}

func (z *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := z.l.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}

	l := ctx.Logger()

	return &zerologAdapter{l: &l}
}
