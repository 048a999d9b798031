package logger

import "go.uber.org/zap"

var log = zap.NewNop().Sugar()

func Init() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	log = l.Sugar()
}

// Set replaces the package logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l.Sugar()
}

func Sync() {
	_ = log.Sync()
}

func Debug(msg string, kv ...interface{}) {
	log.Debugw(msg, kv...)
}

func Info(msg string, kv ...interface{}) {
	log.Infow(msg, kv...)
}

func Warn(msg string, kv ...interface{}) {
	log.Warnw(msg, kv...)
}

func Error(msg string, kv ...interface{}) {
	log.Errorw(msg, kv...)
}
