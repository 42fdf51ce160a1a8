package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ANSI color codes, kept for the banner/section separators which
// print directly to stdout rather than through logrus.
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorCyan   = "\033[36m"
)

var defaultLogger = logrus.New()

func init() {
	defaultLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	defaultLogger.SetLevel(logrus.InfoLevel)
}

// SetLevel sets the minimum log level by name ("debug", "info",
// "warn", "error"); an unrecognized name is ignored.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	defaultLogger.SetLevel(parsed)
}

// Entry returns the package logger's base entry, for call sites that
// want structured fields attached (the Director tags log lines with a
// peer address this way).
func Entry() *logrus.Entry {
	return logrus.NewEntry(defaultLogger)
}

func Debug(format string, args ...interface{}) { defaultLogger.Debugf(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Infof(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warnf(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Errorf(format, args...) }
func Fatal(format string, args ...interface{}) { defaultLogger.Fatalf(format, args...) }

// Success logs at info level, tagged so a custom formatter could
// color it distinctly from a plain Info call.
func Success(format string, args ...interface{}) {
	defaultLogger.WithField("outcome", "success").Infof(format, args...)
}

// InfoCyan preserves the teacher's highlighted-info call sites.
func InfoCyan(format string, args ...interface{}) {
	defaultLogger.WithField("highlight", true).Infof(format, args...)
}

// Section prints a section header, bypassing logrus the same way the
// teacher's banner does.
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n%s╔%s╗%s\n", ColorCyan, border, ColorReset)
	fmt.Printf("%s║%s %-57s %s║%s\n", ColorCyan, ColorReset, title, ColorCyan, ColorReset)
	fmt.Printf("%s╚%s╝%s\n\n", ColorCyan, border, ColorReset)
}

// Banner prints the application banner.
func Banner(title, version string) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   ██████╗ ███████╗██╗     ██╗██╗   ██╗██████╗ ██████╗    ║
║   ██╔══██╗██╔════╝██║     ██║██║   ██║██╔══██╗██╔══██╗   ║
║   ██████╔╝█████╗  ██║     ██║██║   ██║██║  ██║██████╔╝   ║
║   ██╔══██╗██╔══╝  ██║     ██║██║   ██║██║  ██║██╔═══╝    ║
║   ██║  ██║███████╗███████╗██║╚██████╔╝██████╔╝██║        ║
║   ╚═╝  ╚═╝╚══════╝╚══════╝╚═╝ ╚═════╝ ╚═════╝ ╚═╝        ║
║                                                           ║
║              %s%-37s%s║
║                    %sVersion %-7s%s                      ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, ColorCyan, title, ColorReset, ColorGreen, version, ColorReset)
}
