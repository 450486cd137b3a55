// Package logging writes one JSON object per line through the standard
// logger. Records below the configured level are dropped.
package logging

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

type Fields map[string]interface{}

const (
	levelDebug int32 = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var levelNames = map[string]int32{
	"debug": levelDebug,
	"info":  levelInfo,
	"warn":  levelWarn,
	"error": levelError,
	"fatal": levelFatal,
}

var minLevel atomic.Int32

func init() { minLevel.Store(levelInfo) }

// SetLevel sets the minimum level by name. Unknown names leave the level
// unchanged and report false.
func SetLevel(name string) bool {
	lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if ok {
		minLevel.Store(lvl)
	}
	return ok
}

// SetOutput redirects log lines, mainly for tests.
func SetOutput(w io.Writer) { log.SetOutput(w) }

func output(level, msg string, err error, fields Fields) {
	if levelNames[level] < minLevel.Load() {
		return
	}
	out := make(Fields, len(fields)+4)
	for k, v := range fields {
		out[k] = v
	}
	if err != nil {
		out["error"] = err.Error()
	}
	out["level"] = level
	out["ts"] = time.Now().UTC().Format(time.RFC3339)
	out["msg"] = msg
	b, jerr := json.Marshal(out)
	if jerr != nil {
		// fallback to plain logging
		log.Printf("%s: %s (%v)\n", level, msg, out)
		return
	}
	log.Println(string(b))
}

func Debug(msg string, fields Fields) {
	output("debug", msg, nil, fields)
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	output("info", msg, nil, fields)
}

// Warn logs a recoverable problem. err may be nil.
func Warn(msg string, err error, fields Fields) {
	output("warn", msg, err, fields)
}

// Error logs an error message and includes the error text in the fields.
func Error(msg string, err error, fields Fields) {
	output("error", msg, err, fields)
}

// Fatal logs a fatal error and exits the process.
func Fatal(msg string, err error, fields Fields) {
	output("fatal", msg, err, fields)
	os.Exit(1)
}
