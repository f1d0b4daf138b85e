package events

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
)

const (
	DefaultMaxSize    = 100 // MB
	DefaultMaxAge     = 30  // days
	DefaultMaxBackups = 10  // files
	DefaultTemplate   = "{timestamp}\t{client_ip}\t{method}\t{path}\t{status_code}\t{category}\t{sections}\t{dropped}\t{page_size}\t{serve_time}\t{request_id}"
)

// FileEmitter writes formatted events to a rotated log file.
type FileEmitter struct {
	mu        sync.Mutex
	writer    *lumberjack.Logger
	formatter *TemplateFormatter
	logger    *zap.Logger
}

// NewFileEmitter creates the log directory and validates the template.
func NewFileEmitter(config configtypes.AccessLogConfig, logger *zap.Logger) (*FileEmitter, error) {
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	template := config.Template
	if template == "" {
		template = DefaultTemplate
	}
	formatter, err := NewTemplateFormatter(template)
	if err != nil {
		return nil, fmt.Errorf("invalid template for access log %s: %w", config.Path, err)
	}

	maxSize := config.Rotation.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}
	maxAge := config.Rotation.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}
	maxBackups := config.Rotation.MaxBackups
	if maxBackups == 0 {
		maxBackups = DefaultMaxBackups
	}

	return &FileEmitter{
		writer: &lumberjack.Logger{
			Filename:   config.Path,
			MaxSize:    maxSize,
			MaxAge:     maxAge,
			MaxBackups: maxBackups,
			Compress:   config.Rotation.Compress,
		},
		formatter: formatter,
		logger:    logger,
	}, nil
}

// Emit formats the event and appends it to the log file.
func (f *FileEmitter) Emit(event *PageEvent) {
	line := f.formatter.Format(event)

	f.mu.Lock()
	_, err := f.writer.Write([]byte(line + "\n"))
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("failed to write access log entry",
			zap.Error(err),
			zap.String("request_id", event.RequestID),
		)
	}
}

func (f *FileEmitter) Close() error {
	return f.writer.Close()
}
