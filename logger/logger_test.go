package logger_test

import (
	"testing"

	"github.com/firasghr/GoSessionEngine/logger"
)

func TestNew_DoesNotPanic(t *testing.T) {
	l := logger.New(logger.LevelDebug)
	l.Info("hello")
	l.Infof("count=%d", 3)
	l.Error("oops")
	l.Debug("detail")
	if err := l.Sync(); err != nil {
		// Syncing stderr can fail harmlessly on some platforms (e.g. when it
		// is not a regular file); only fail the test on unexpected errors.
		t.Logf("Sync: %v", err)
	}
}

func TestSetLevel(t *testing.T) {
	l := logger.New(logger.LevelError)
	l.SetLevel(logger.LevelDebug)
	l.Debug("now visible")
}

func TestWith(t *testing.T) {
	l := logger.New(logger.LevelInfo)
	child := l.With("session_id", "abc")
	child.Info("scoped message")
}
