package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
)

type UserExistsInput struct {
	Phone string `validate:"required"`
}

type UserExistsOutput struct {
	Exists bool
}

// UserExists looks the canonical phone up in the identity provider and falls
// back to the user directory by the raw phone.
func (s *Usecase) UserExists(ctx context.Context, in UserExistsInput) (*UserExistsOutput, error) {
	ctx, span := s.startSpan(ctx, "UserExists")
	defer span.End()

	in.Phone = strings.TrimSpace(in.Phone)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	formatted := phone.Normalize(in.Phone)

	_, err := s.repoIdentity.FindByPhone(ctx, formatted)
	if err == nil {
		return &UserExistsOutput{Exists: true}, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo find account by phone", "phone", formatted, "error", err)
		return nil, identityProviderError(err)
	}

	exists, err := s.repoIdentity.ExistsByPhone(ctx, in.Phone)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check directory by phone", "phone", in.Phone, "error", err)
		return nil, identityProviderError(err)
	}

	return &UserExistsOutput{Exists: exists}, nil
}
