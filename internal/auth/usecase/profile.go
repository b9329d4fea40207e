package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

type ProfileOutput struct {
	UID            string
	Phone          string
	PhoneFormatted string
	CreatedAt      time.Time
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, errUnauthenticated
	}

	acc, err := s.repoIdentity.FindByUID(ctx, clm.UID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account of session not found", "uid", clm.UID)
		return nil, errUnauthenticated
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find account by uid", "uid", clm.UID, "error", err)
		return nil, identityProviderError(err)
	}

	return &ProfileOutput{
		UID:            acc.UID,
		Phone:          acc.PhoneRaw,
		PhoneFormatted: acc.PhoneFormatted,
		CreatedAt:      acc.CreatedAt,
	}, nil
}
