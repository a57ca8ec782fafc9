// internal/logger/logger.go
//
// Structured logger (Zap + Lumberjack) shaped by the LOGGING section.
//
// Context
// -------
// The service writes lifecycle and error events to stderr and, when
// LOGGING.LOG_DIR is set, to `<LOG_DIR>/<SERVICE_NAME>.log`.  Rotation,
// compression, and retention are handled by Lumberjack; no external
// log-rotate job is required.
//
// LOG_FORMAT is a list of %(attr)s placeholders.  The attributes it names
// become encoder keys; the ones it leaves out are dropped from every line.
// The literal text between the first two placeholders becomes the console
// separator.  Element order is zap's (time, level, name, caller, message),
// so the default format renders as
//
//	2024-05-01 12:00:00 - INFO - my_service_name - logger online
//
// Usage
// -----
//
//	boot := logger.Bootstrap()              // before configuration loads
//	app, err := settings.NewLoader(config.WithLogger(boot)).Get()
//	log, err := logger.New(app.Logging, app.ServiceName)
//	log.Infow("listening", "addr", addr)
//
// Notes
// -----
// • Levels use the LOG_LEVEL names: DEBUG, INFO, WARNING, ERROR, CRITICAL.
// • CRITICAL maps to zap's DPanic level, which only panics in development.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/confstack/internal/settings"
)

var levels = map[string]zapcore.Level{
	"DEBUG":    zapcore.DebugLevel,
	"INFO":     zapcore.InfoLevel,
	"WARNING":  zapcore.WarnLevel,
	"ERROR":    zapcore.ErrorLevel,
	"CRITICAL": zapcore.DPanicLevel,
}

var levelNames = map[zapcore.Level]string{
	zapcore.DebugLevel:  "DEBUG",
	zapcore.InfoLevel:   "INFO",
	zapcore.WarnLevel:   "WARNING",
	zapcore.ErrorLevel:  "ERROR",
	zapcore.DPanicLevel: "CRITICAL",
	zapcore.PanicLevel:  "CRITICAL",
	zapcore.FatalLevel:  "CRITICAL",
}

// ParseLevel maps a LOG_LEVEL name onto a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	lvl, ok := levels[strings.ToUpper(name)]
	if !ok {
		return zapcore.InfoLevel, fmt.Errorf("logger: unknown level %q", name)
	}
	return lvl, nil
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	name, ok := levelNames[l]
	if !ok {
		name = l.CapitalString()
	}
	enc.AppendString(name)
}

// New returns a *zap.SugaredLogger named after service and configured by
// cfg.  The logger is installed as the process-wide default via
// zap.ReplaceGlobals.
func New(cfg settings.Logging, service string) (*zap.SugaredLogger, error) {
	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	if cfg.Dir != "" {
		fileSink, err := fileSink(cfg.Dir, service)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fileSink)
	}

	z, err := build(cfg, service, sinks...)
	if err != nil {
		return nil, err
	}

	// Make this the global logger so zap.S() works everywhere after startup.
	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "level", cfg.Level, "encoding", cfg.Encoding, "dir", cfg.Dir)
	return z, nil
}

// Bootstrap returns a console logger for the window before configuration
// has loaded.  It is also installed as the global logger.
func Bootstrap() *zap.SugaredLogger {
	z, err := build(settings.Logging{
		Level:      "INFO",
		Format:     settings.DefaultLogFormat,
		DateFormat: "2006-01-02 15:04:05",
		Encoding:   "console",
	}, "confstack", zapcore.Lock(os.Stderr))
	if err != nil {
		// Static input above; unreachable.
		panic(err)
	}
	zap.ReplaceGlobals(z.Desugar())
	return z
}

func fileSink(dir, service string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, service+".log"),
		MaxSize:    50, // MB
		MaxBackups: 7,  // keep last seven files
		MaxAge:     14, // days
		Compress:   true,
	}), nil
}

// build assembles the core shared by New and Bootstrap.  Every sink gets
// the same encoder and level.
func build(cfg settings.Logging, service string, sinks ...zapcore.WriteSyncer) (*zap.SugaredLogger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encCfg := encoderConfig(cfg)
	var enc zapcore.Encoder
	switch cfg.Encoding {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("logger: unknown encoding %q", cfg.Encoding)
	}

	cores := make([]zapcore.Core, 0, len(sinks))
	for _, s := range sinks {
		cores = append(cores, zapcore.NewCore(enc.Clone(), s, lvl))
	}

	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if encCfg.CallerKey != "" {
		opts = append(opts, zap.AddCaller())
	}
	if fields := staticFields(cfg.Format); len(fields) > 0 {
		opts = append(opts, zap.Fields(fields...))
	}
	return zap.New(zapcore.NewTee(cores...), opts...).Named(service).Sugar(), nil
}

// encoderConfig turns the attributes LOG_FORMAT references into encoder
// keys.  An empty key tells zap to omit that element.
func encoderConfig(cfg settings.Logging) zapcore.EncoderConfig {
	encCfg := zapcore.EncoderConfig{
		EncodeTime:       zapcore.TimeEncoderOfLayout(cfg.DateFormat),
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: separator(cfg.Format),
	}
	for _, attr := range settings.FormatAttributes(cfg.Format) {
		switch attr {
		case "asctime", "created", "msecs":
			if encCfg.TimeKey == "" {
				encCfg.TimeKey = attr
			}
		case "levelname", "levelno":
			if encCfg.LevelKey == "" {
				encCfg.LevelKey = attr
			}
		case "name":
			encCfg.NameKey = attr
		case "message":
			encCfg.MessageKey = attr
		case "filename", "lineno", "pathname", "module":
			if encCfg.CallerKey == "" {
				encCfg.CallerKey = attr
			}
			if attr == "pathname" {
				encCfg.EncodeCaller = zapcore.FullCallerEncoder
			}
		case "funcName":
			encCfg.FunctionKey = attr
		}
	}
	// A line without a message is useless.
	if encCfg.MessageKey == "" {
		encCfg.MessageKey = "message"
	}
	return encCfg
}

// staticFields covers the attributes that are constant for the process.
func staticFields(format string) []zap.Field {
	var out []zap.Field
	for _, attr := range settings.FormatAttributes(format) {
		if attr == "process" {
			out = append(out, zap.Int("process", os.Getpid()))
		}
	}
	return out
}

// separator returns the literal text between the first two placeholders,
// or a tab when the format has fewer than two.
func separator(format string) string {
	first := strings.Index(format, "%(")
	if first < 0 {
		return "\t"
	}
	end := strings.Index(format[first:], ")")
	if end < 0 || first+end+2 > len(format) {
		return "\t"
	}
	rest := format[first+end+2:]
	next := strings.Index(rest, "%(")
	if next <= 0 {
		return "\t"
	}
	return rest[:next]
}
