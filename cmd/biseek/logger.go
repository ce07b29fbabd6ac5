package main

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
)

// dualLogger writes harness output to stdout/stderr, mirrored to a shared
// log file when one is configured.
type dualLogger struct {
	out *log.Logger
	err *log.Logger
	f   *os.File
}

func newLogger(path string) (*dualLogger, error) {
	l := &dualLogger{
		out: log.New(os.Stdout, "", log.LstdFlags),
		err: log.New(os.Stderr, "", log.LstdFlags),
	}
	if path == "" {
		return l, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening log file %s", path)
	}
	l.f = f
	l.out = log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)
	l.err = log.New(io.MultiWriter(os.Stderr, f), "", log.LstdFlags)
	return l, nil
}

func (l *dualLogger) Infof(format string, v ...any) {
	l.out.Printf(format, v...)
}

func (l *dualLogger) Errorf(format string, v ...any) {
	l.err.Printf(format, v...)
}

func (l *dualLogger) Close() {
	if l.f != nil {
		l.f.Close()
	}
}
