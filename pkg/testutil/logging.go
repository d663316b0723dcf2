package testutil

import (
	"flag"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Importing this package silences logrus unless tests run verbosely.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	if !isVerbose() {
		logrus.StandardLogger().SetOutput(io.Discard)
	}
}

func isVerbose() bool {
	if f := flag.Lookup("test.v"); f != nil && f.Value.String() == "true" {
		return true
	}

	for _, arg := range os.Args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=true") {
			return true
		}
	}
	return false
}

func DisableLogging() (reset func()) {
	originalLogOutput := logrus.StandardLogger().Out
	logrus.StandardLogger().SetOutput(io.Discard)
	return func() {
		logrus.StandardLogger().SetOutput(originalLogOutput)
	}
}
