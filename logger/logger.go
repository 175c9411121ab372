package logger

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strconv"
	"sync"
)

const (
	LogLevelEnv = "SBATCH_GOVERNOR_LOGLEVEL"

	DebugLevel    = 10
	InfoLevel     = 20
	WarningLevel  = 30
	ErrorLevel    = 40
	CriticalLevel = 50
)

var (
	mu    sync.RWMutex
	out   = log.New(os.Stderr, "", log.LstdFlags)
	level = levelFromEnv()
)

func levelFromEnv() int {
	if env, err := strconv.Atoi(os.Getenv(LogLevelEnv)); err == nil {
		return env
	}
	return InfoLevel
}

// SetOutput redirects every level to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(w, "", log.LstdFlags)
}

// SetLevel overrides the level read from SBATCH_GOVERNOR_LOGLEVEL.
func SetLevel(l int) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Level returns the active threshold.
func Level() int {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

func levelName(l int) string {
	switch {
	case l <= DebugLevel:
		return "DEBUG"
	case l <= InfoLevel:
		return "INFO"
	case l <= WarningLevel:
		return "WARNING"
	case l <= ErrorLevel:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

func printf(l int, format string, a ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if level > l {
		return
	}
	out.Printf(levelName(l)+" "+format, a...)
}

func Debugf(format string, a ...any)    { printf(DebugLevel, format, a...) }
func Infof(format string, a ...any)     { printf(InfoLevel, format, a...) }
func Warningf(format string, a ...any)  { printf(WarningLevel, format, a...) }
func Errorf(format string, a ...any)    { printf(ErrorLevel, format, a...) }
func Criticalf(format string, a ...any) { printf(CriticalLevel, format, a...) }

// DebugObj dumps v as indented JSON at debug level.
func DebugObj(name string, v any) {
	if Level() > DebugLevel {
		return
	}
	data, _ := json.MarshalIndent(v, "", " ")
	printf(DebugLevel, "%s:\n%s", name, data)
}
