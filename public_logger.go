package meet

import (
	"github.com/classytamil/Go-Meet/logs"
)

type PublicLogger interface {
	logs.Logger
}

func NewLogger(caller string) PublicLogger {
	return logs.New(caller)
}

func InitLoggerFile(filesDir string, filename string) {
	logs.InitLoggerFile(filesDir, filename)
}

func GetLogFilePath() string {
	return logs.GetLogFilePath()
}
