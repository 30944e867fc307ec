// Package logger is the operational log used by the site server.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type Logger struct {
	out   *log.Logger
	debug bool

	debugTag *color.Color
	infoTag  *color.Color
	warnTag  *color.Color
	errorTag *color.Color
}

// New returns a Logger writing to w. Level tags are colored only when colored is set.
func New(w io.Writer, colored bool) *Logger {
	l := &Logger{
		out:      log.New(w, "", log.LstdFlags),
		debugTag: color.New(color.FgHiBlack),
		infoTag:  color.New(color.FgCyan),
		warnTag:  color.New(color.FgYellow),
		errorTag: color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{l.debugTag, l.infoTag, l.warnTag, l.errorTag} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return l
}

// Stderr returns a Logger on os.Stderr, colored when stderr is a terminal.
func Stderr() *Logger {
	return New(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

// Discard drops everything. Used by tests.
func Discard() *Logger {
	return New(io.Discard, false)
}

func (l *Logger) SetDebug(on bool) {
	l.debug = on
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.printf(l.debugTag, "DEBUG", format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(l.infoTag, "INFO", format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.printf(l.warnTag, "WARN", format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(l.errorTag, "ERROR", format, args...)
}

func (l *Logger) printf(tag *color.Color, level, format string, args ...interface{}) {
	l.out.Printf("%s: %s", tag.Sprint(level), fmt.Sprintf(format, args...))
}
