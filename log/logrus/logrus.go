package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/slotcache"
)

var _ slotcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f slotcache.Fields) { l.E.WithFields(lf(f)).Debug(msg) }
func (l LogrusLogger) Info(msg string, f slotcache.Fields)  { l.E.WithFields(lf(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f slotcache.Fields)  { l.E.WithFields(lf(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f slotcache.Fields) { l.E.WithFields(lf(f)).Error(msg) }

func lf(f slotcache.Fields) logrus.Fields {
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		if k == "err" {
			k = logrus.ErrorKey
		}
		out[k] = slotcache.FieldValue(v)
	}
	return out
}
