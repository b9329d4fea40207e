// Package otpstore keeps one active one-time code record per phone.
package otpstore

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultRetention outlives the expiry window so an expired record is still
// reported as expired before it disappears.
const DefaultRetention = time.Hour

type clocker interface {
	Now() time.Time
}

func startSpan(ctx context.Context, ins instrument.Instrumentation, name string) (context.Context, trace.Span) {
	return ins.Tracer("auth.outbound.otpstore").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Store is the contract shared by every driver.
type Store interface {
	Put(ctx context.Context, phone, code string) error
	Get(ctx context.Context, phone string) (*entity.OTP, error)
	Delete(ctx context.Context, phone string) error
}
