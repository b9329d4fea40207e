package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
)

type uc interface {
	ConsumeAccountCreated(ctx context.Context, in usecase.ConsumeAccountCreatedInput) error
}
