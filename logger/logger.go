package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	gormlogger "gorm.io/gorm/logger"
)

var output io.Writer = os.Stdout

// Setup points the process logger at stdout and, when logDir is set, at a
// rotating file in that directory. The returned closer releases the file.
func Setup(logDir, serviceName string) (io.Closer, error) {
	prefix := ""
	if serviceName != "" {
		prefix = fmt.Sprintf("[%s] ", serviceName)
	}

	if logDir == "" {
		output = os.Stdout
		log.SetOutput(output)
		log.SetPrefix(prefix)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "app.log"),
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	output = io.MultiWriter(os.Stdout, fileWriter)
	log.SetOutput(output)
	log.SetPrefix(prefix)
	return fileWriter, nil
}

// Writer is the destination configured by Setup, for gin and gorm.
func Writer() io.Writer {
	return output
}

// GormLogger logs every statement in debug mode and only warnings and slow
// queries otherwise.
func GormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(log.New(output, "", log.LstdFlags), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
