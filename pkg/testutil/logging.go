package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Test binaries log at trace level, but only show it when run verbosely.
func init() {
	logrus.SetLevel(logrus.TraceLevel)
	if !verbose(os.Args) {
		logrus.SetOutput(io.Discard)
	}
}

func verbose(args []string) bool {
	for _, arg := range args {
		if arg == "-test.v" || (strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false") {
			return true
		}
	}
	return false
}

// DisableLogging silences the standard logrus logger, even in verbose runs.
// The returned func restores the previous output and level, and is meant for
// t.Cleanup.
func DisableLogging() (reset func()) {
	logger := logrus.StandardLogger()
	out, level := logger.Out, logger.GetLevel()

	logger.SetOutput(io.Discard)
	return func() {
		logger.SetOutput(out)
		logger.SetLevel(level)
	}
}
