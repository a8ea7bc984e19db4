package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/binjson"
)

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("encoded", binjson.Fields{"entries": 3})
	l.Warn("rejected", binjson.Fields{"key": "k"})

	if len(hook.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hook.Entries))
	}
	first := hook.Entries[0]
	if first.Level != logrus.DebugLevel || first.Message != "encoded" || first.Data["entries"] != 3 {
		t.Fatalf("unexpected entry %+v", first)
	}
	if last := hook.LastEntry(); last.Level != logrus.WarnLevel || last.Data["key"] != "k" {
		t.Fatalf("unexpected entry %+v", last)
	}
}
