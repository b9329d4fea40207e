package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

// dispatch runs handler, converting a panic into an error, and acks on
// success when autoAck is set.
func dispatch(ctx context.Context, driver string, handler Handler, msg Message, autoAck bool) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in messaging handler",
				"driver", driver,
				"topic", msg.Topic(),
				"panic", rvr,
				"stack", stacktrace.InternalPaths(debug.Stack()),
			)
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	if err := handler(ctx, msg); err != nil {
		return err
	}
	if autoAck {
		return msg.Ack(ctx)
	}
	return nil
}
