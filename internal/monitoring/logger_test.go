package monitoring

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogger(t *testing.T) {
	origLog, origWarn, origDebug := Logf, Warnf, Debugf
	defer func() { Logf, Warnf, Debugf = origLog, origWarn, origDebug }()

	calls := 0
	SetLogger(func(format string, v ...interface{}) { calls++ })
	Logf("test message")
	Warnf("warning %d", 1)
	Debugf("detail")
	if calls != 3 {
		t.Errorf("custom logger called %d times, want 3", calls)
	}

	// nil installs a no-op that must not reach the previous logger.
	calls = 0
	SetLogger(nil)
	Logf("test")
	Warnf("test")
	if calls != 0 {
		t.Error("no-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil || Warnf == nil || Debugf == nil {
		t.Fatal("default loggers should not be nil")
	}
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()
	Logf("test message: %s", "value")
}

func TestSetLevel(t *testing.T) {
	orig := logrus.GetLevel()
	defer logrus.SetLevel(orig)

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel(warn) error: %v", err)
	}
	if logrus.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", logrus.GetLevel())
	}
	if err := SetLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}
