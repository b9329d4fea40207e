package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
)

const defaultWelcomeTemplate = "Welcome to Videos Alarm! Your account is ready. -Team Videos Alarm"

type ConsumeAccountCreatedInput struct {
	UID   string `validate:"required"`
	Phone string `validate:"required"`
}

// ConsumeAccountCreated sends the welcome SMS once per account. Malformed
// events are dropped; a failed send is returned so the key can be retried.
func (s *Usecase) ConsumeAccountCreated(ctx context.Context, in ConsumeAccountCreatedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccountCreated")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	if !s.cfg.GetBool("modules.notification.welcome_sms.enabled") {
		slog.DebugContext(ctx, "welcome sms disabled", "uid", in.UID)
		return nil
	}

	text := s.cfg.GetString("modules.notification.welcome_sms.template")
	if text == "" {
		text = defaultWelcomeTemplate
	}

	err := s.idemp.Exec(ctx, "notification:welcome_sms:"+in.UID, func(ctx context.Context) error {
		return s.repoSMS.Send(ctx, in.Phone, text)
	}, idempotency.WithRetryOnFailure())
	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "welcome sms already handled", "uid", in.UID, "reason", err.Error())
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to send welcome sms", "uid", in.UID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "welcome sms sent", "uid", in.UID)
	return nil
}
