package tracer

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

type logLevel int

const (
	logOff logLevel = iota
	logWarn
	logTrap
	logDebug
)

var (
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	level  = parseLogLevel(os.Getenv("EXTCD_DEBUG"), os.Getenv("EXTCD_LOG_LEVEL"))
)

func parseLogLevel(debug, name string) logLevel {
	if debug != "" {
		return logDebug
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "off", "none", "0":
		return logOff
	case "", "warn", "warning", "1":
		return logWarn
	case "trap", "info", "2":
		return logTrap
	case "debug", "verbose", "3":
		return logDebug
	default:
		return logWarn
	}
}

func debugf(format string, args ...interface{}) {
	if level < logDebug {
		return
	}
	logger.Debug(fmt.Sprintf(format, args...))
}

func warnf(format string, args ...interface{}) {
	if level < logWarn {
		return
	}
	logger.Warn(fmt.Sprintf(format, args...))
}

func logInject(s *Session, sysno uint64, action string) {
	if level < logTrap {
		return
	}
	logger.Info(
		"inject",
		"pid", s.TargetPid,
		"step", s.StepCount,
		"phase", s.Phase.String(),
		"syscall", syscallName(sysno),
		"action", action,
	)
}

func syscallName(sysno uint64) string {
	switch sysno {
	case SYS_MMAP:
		return "mmap"
	case SYS_CHDIR:
		return "chdir"
	case SYS_WAIT4:
		return "wait4"
	case SYS_WAITID:
		return "waitid"
	case ^uint64(0):
		return "none"
	default:
		return fmt.Sprintf("sys_%d", sysno)
	}
}
