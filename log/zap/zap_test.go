package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/slotcache"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	var k slotcache.Key
	k[slotcache.KeyLen-1] = 0x0a
	l.Warn("flushed", slotcache.Fields{"key": k, "stores": 2, "err": errors.New("boom")})
	l.Debug("quiet", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "flushed" {
		t.Fatalf("unexpected entry: %+v", e.Entry)
	}
	ctx := e.ContextMap()
	if ctx["key"] != k.String() {
		t.Fatalf("key rendered as %v", ctx["key"])
	}
	if ctx["stores"] != int64(2) {
		t.Fatalf("stores = %#v", ctx["stores"])
	}
	if ctx["err"] != "boom" {
		t.Fatalf("err = %#v", ctx["err"])
	}
	if len(entries[1].Context) != 0 {
		t.Fatalf("nil fields must add no context")
	}
}
