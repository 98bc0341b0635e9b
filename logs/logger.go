package logs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type logFormatter func(entry *log.Entry) ([]byte, error)

func (f logFormatter) Format(entry *log.Entry) ([]byte, error) {
	return f(entry)
}

func init() {
	log.SetLevel(log.DebugLevel)
	log.SetReportCaller(true)
	log.SetFormatter(&log.TextFormatter{
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			return frame.Function, ""
		},
	})
	log.SetFormatter(logFormatter(func(entry *log.Entry) ([]byte, error) {
		var b *bytes.Buffer
		if entry.Buffer != nil {
			b = entry.Buffer
		} else {
			b = &bytes.Buffer{}
		}

		b.WriteString(entry.Time.Format(time.RFC3339))
		b.WriteByte(' ')
		b.WriteString(strings.ToUpper(entry.Level.String()))

		b.WriteByte(' ')
		if caller, ok := entry.Data["caller"]; ok {
			b.WriteString(fmt.Sprintf("%s", caller))
		} else if entry.HasCaller() {
			b.WriteString(entry.Caller.Function)
		} else {
			b.WriteByte('-')
		}

		b.WriteByte(' ')
		b.WriteString(entry.Message)

		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			if k == "caller" {
				continue
			}
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			value := entry.Data[k]
			stringVal, ok := value.(string)
			if !ok {
				stringVal = fmt.Sprint(value)
			}
			b.WriteString(stringVal)
		}

		b.WriteByte('\n')
		return b.Bytes(), nil
	}))
}

var logFilePath string

// InitLoggerFile mirrors log output into a file inside the host app's
// files directory, in addition to stderr.
func InitLoggerFile(filesDir string, fileName string) {
	logFile, err := os.Create(path.Join(filesDir, fileName))
	if err != nil {
		log.WithError(err).Error("file for logs was not created")
		return
	}
	logFilePath = logFile.Name()
	log.Infof("file for logs was created(%s)", logFilePath)
	log.SetOutput(io.MultiWriter(os.Stderr, bufio.NewWriter(logFile)))
}

func GetLogFilePath() string {
	return logFilePath
}

type Logger interface {
	Trace(message string)
	Debug(message string)
	Info(message string)
	Warn(message string)
	Error(message string)
}

type LoggerStruct struct {
	logEntry *log.Entry
}

func (l *LoggerStruct) Trace(message string) {
	l.logEntry.Trace(message)
}

func (l *LoggerStruct) Debug(message string) {
	l.logEntry.Debug(message)
}

func (l *LoggerStruct) Info(message string) {
	l.logEntry.Info(message)
}

func (l *LoggerStruct) Warn(message string) {
	l.logEntry.Warn(message)
}

func (l *LoggerStruct) Error(message string) {
	l.logEntry.Error(message)
}

func New(caller string) Logger {
	return &LoggerStruct{
		logEntry: log.WithField("caller", caller),
	}
}
