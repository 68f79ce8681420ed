package interceptor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pnwamk/cryptol/pkg/protocol"
)

type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

type defaultLogger struct{}

func (l *defaultLogger) Infof(format string, args ...any) {
	fmt.Printf("[INFO] "+format+"\n", args...)
}

func (l *defaultLogger) Errorf(format string, args ...any) {
	fmt.Printf("[ERROR] "+format+"\n", args...)
}

// ZapLogger adapts a zap sugared logger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *ZapLogger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

func Logging(logger Logger) Interceptor {
	if logger == nil {
		logger = &defaultLogger{}
	}

	return func(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error) {
		start := time.Now()

		resp, err := invoker(ctx, req)

		duration := time.Since(start)

		switch {
		case err != nil:
			logger.Errorf("call %q id=%d failed in %v: %v", req.Method, req.ID, duration, err)
		case resp.IsError():
			logger.Errorf("call %q id=%d rejected in %v: %v", req.Method, req.ID, duration, resp.Error)
		default:
			logger.Infof("call %q id=%d ok in %v", req.Method, req.ID, duration)
		}

		return resp, err
	}
}
