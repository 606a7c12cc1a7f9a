package monitoring

import "github.com/sirupsen/logrus"

// Logf is the package-level diagnostic logger. It defaults to logrus at
// info level but may be replaced by SetLogger. Tests or production code can
// redirect or mute it.
var Logf func(format string, v ...interface{}) = logrus.Infof

// Warnf reports recoverable conditions such as a degenerate fit.
var Warnf func(format string, v ...interface{}) = logrus.Warnf

// Debugf reports per-iteration detail.
var Debugf func(format string, v ...interface{}) = logrus.Debugf

// SetLogger routes Logf, Warnf and Debugf to f. Passing nil installs a
// no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	Logf, Warnf, Debugf = f, f, f
}

// SetLevel sets the logrus level from its name ("debug", "info", "warn", ...).
func SetLevel(name string) error {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}
