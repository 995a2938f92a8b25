// Package logx is the logging front used by code shared with the firmware.
//
// Host builds forward to glog. MCU builds write lines to Output, which the
// firmware points at its console.
package logx
