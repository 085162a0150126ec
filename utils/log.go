package utils

import (
	"log"
	"os"
	"sync/atomic"
)

var (
	logger  = log.New(os.Stderr, "[dfl] ", log.LstdFlags)
	debugOn atomic.Bool
)

// SetDebug turns Debugf output on or off.
func SetDebug(on bool) { debugOn.Store(on) }

func DebugEnabled() bool { return debugOn.Load() }

func Debugf(format string, args ...any) {
	if !debugOn.Load() {
		return
	}
	logger.Printf("debug: "+format, args...)
}

func Infof(format string, args ...any) {
	logger.Printf(format, args...)
}

func Warnf(format string, args ...any) {
	logger.Printf("warn: "+format, args...)
}
