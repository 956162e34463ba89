// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"log/slog"
	"os"
	"strings"
)

const (
	levelNotice  = slog.Level(2)
	levelDisable = slog.Level(99)
)

var (
	customLevels = map[slog.Leveler]string{
		levelNotice: "NOTICE",
	}
	customLevelsTerm = map[slog.Leveler]string{
		levelNotice: "\u001B[34m" + "NTC" + "\u001B[0m",
	}
)

// EnvLevelName is the environment variable consulted by SetFromEnv.
const EnvLevelName = "HOSTPROBE_LOG_LEVEL"

var Level = &level{lvl: &slog.LevelVar{}}

type level struct {
	lvl *slog.LevelVar
}

func (l *level) Enabled(level slog.Level) bool {
	return level >= l.lvl.Level()
}

func (l *level) Set(level slog.Level) {
	l.lvl.Set(level)
}

// SetFromEnv applies EnvLevelName if it is set. It reports whether a level was applied.
func (l *level) SetFromEnv() bool {
	v, ok := os.LookupEnv(EnvLevelName)
	if !ok || v == "" {
		return false
	}
	return l.SetByName(v)
}

func (l *level) SetByName(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "err", "error":
		l.lvl.Set(slog.LevelError)
	case "warn", "warning":
		l.lvl.Set(slog.LevelWarn)
	case "notice":
		l.lvl.Set(levelNotice)
	case "info":
		l.lvl.Set(slog.LevelInfo)
	case "debug":
		l.lvl.Set(slog.LevelDebug)
	case "off", "none", "emergency", "alert", "critical":
		l.lvl.Set(levelDisable)
	default:
		return false
	}
	return true
}
