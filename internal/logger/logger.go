package logger

import (
	"io"
	"os"

	"bus-pricing/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger обёртка над logrus с настройкой из конфигурации
type Logger struct {
	*logrus.Logger
}

// New создаёт логгер: уровень, формат (json|text) и необязательный файл вывода
func New(cfg *config.LoggerConfig) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = io.MultiWriter(os.Stdout, file)
		} else {
			log.WithError(err).Warn("Failed to open log file, using stdout")
		}
	}
	log.SetOutput(out)

	return &Logger{Logger: log}
}

// WithRoute добавляет маршрут в контекст записи
func (l *Logger) WithRoute(route string) *logrus.Entry {
	return l.WithField("route", route)
}
