package ghostmem

import "github.com/sirupsen/logrus"

// newLogger builds the manager's logger. Verbose enables Debug/Info
// tracing of normal operations; warnings and errors (unknown handle,
// spill failures, double-deallocate) are always logged regardless of
// Verbose, matching spec.md §7's "logged and ignored" recovery paths.
func newLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.WarnLevel)
	}
	return l
}
