// Package tryfix adapts a github.com/tryfix/log Logger.
package tryfix

import (
	"fmt"
	"sort"

	"github.com/tryfix/log"

	"github.com/unkn0wn-root/slotcache"
)

var _ slotcache.Logger = Logger{}

// Logger forwards to L with fields appended as sorted key=value params.
type Logger struct{ L log.Logger }

func (l Logger) Debug(msg string, f slotcache.Fields) { l.L.Debug(msg, params(f)...) }
func (l Logger) Info(msg string, f slotcache.Fields)  { l.L.Info(msg, params(f)...) }
func (l Logger) Warn(msg string, f slotcache.Fields)  { l.L.Warn(msg, params(f)...) }
func (l Logger) Error(msg string, f slotcache.Fields) { l.L.Error(msg, params(f)...) }

func params(f slotcache.Fields) []interface{} {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(f))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%v", k, slotcache.FieldValue(f[k])))
	}
	return out
}
