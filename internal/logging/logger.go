package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide log sink. Components derive entries from it
// with For so every line carries the component name.
var Logger = logrus.New()

var hookOnce sync.Once

type appNameHook struct {
	appName string
}

func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

// Init configures Logger for the named binary. LOG_LEVEL selects the level
// (default info). The app-name hook is installed by the first call only.
func Init(appName string) {
	Logger.SetOutput(os.Stdout)

	levelStr := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", levelStr)
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	hookOnce.Do(func() {
		Logger.AddHook(&appNameHook{appName})
	})
}

// For returns an entry tagged with the given component.
func For(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}

// LogRequest logs an outbound API request.
func LogRequest(component, method, url string, fields logrus.Fields) {
	For(component).WithFields(fields).Debugf("%s %s", method, url)
}

// LogResponse logs an API response received.
func LogResponse(component string, statusCode int, duration time.Duration, resultCount int) {
	For(component).WithFields(logrus.Fields{
		"status":      statusCode,
		"duration_ms": duration.Milliseconds(),
		"results":     resultCount,
	}).Debug("response")
}

// LogError logs an error from an API operation.
func LogError(component, operation string, err error) {
	For(component).WithError(err).Warnf("%s failed", operation)
}
