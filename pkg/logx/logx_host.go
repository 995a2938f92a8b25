//go:build !(rp2040 || rp2350)

package logx

import "github.com/golang/glog"

// Infof logs at info level.
func Infof(format string, args ...interface{}) { glog.InfoDepth(1, sprintf(format, args...)) }

// Warningf logs at warning level.
func Warningf(format string, args ...interface{}) { glog.WarningDepth(1, sprintf(format, args...)) }

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { glog.ErrorDepth(1, sprintf(format, args...)) }

// V reports whether verbose logging at level is enabled.
func V(level int) bool {
	return bool(glog.V(glog.Level(level)))
}
