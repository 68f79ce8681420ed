package interceptor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/pnwamk/cryptol/pkg/protocol"
)

func Recovery() Interceptor {
	return func(ctx context.Context, req *protocol.Request, invoker Invoker) (resp *protocol.Response, err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				err = fmt.Errorf("panic recovered: %v\nstack:\n%s", r, stack)
				resp = nil
			}
		}()

		return invoker(ctx, req)
	}
}
