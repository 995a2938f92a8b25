//go:build rp2040 || rp2350

package logx

import "io"

// Output receives log lines. Nil discards them.
var Output io.Writer

// Verbosity is the highest level V reports as enabled.
var Verbosity = 0

// Infof logs at info level.
func Infof(format string, args ...interface{}) { emit("I ", format, args) }

// Warningf logs at warning level.
func Warningf(format string, args ...interface{}) { emit("W ", format, args) }

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { emit("E ", format, args) }

// V reports whether verbose logging at level is enabled.
func V(level int) bool {
	return level <= Verbosity
}

func emit(prefix, format string, args []interface{}) {
	if w := Output; w != nil {
		w.Write([]byte(prefix + sprintf(format, args...) + "\r\n"))
	}
}
