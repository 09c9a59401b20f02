package ledger

import (
	"io"

	"github.com/sirupsen/logrus"
)

func nopLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
