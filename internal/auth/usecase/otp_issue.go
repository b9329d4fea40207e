package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
)

type IssueOTPInput struct {
	Phone string `validate:"required"`
}

// IssueOTP creates a code for the phone, overwriting any active one, and sends
// it by SMS. A failed send leaves the stored code in place.
func (s *Usecase) IssueOTP(ctx context.Context, in IssueOTPInput) error {
	ctx, span := s.startSpan(ctx, "IssueOTP")
	defer span.End()

	in.Phone = strings.TrimSpace(in.Phone)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	decision, err := s.limiter.Allow(ctx, in.Phone)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check otp issue rate", "phone", in.Phone, "error", err)
		return goerror.NewServer(err)
	}
	if !decision.Allowed {
		slog.WarnContext(ctx, "otp issue rate exceeded", "phone", in.Phone, "reset_at", decision.ResetAt)
		return errTooManyOTPRequests
	}

	code := testIdentityCode
	if !s.isTestIdentity(in.Phone) {
		code, err = s.code.Generate()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate otp", "error", err)
			return goerror.NewServer(err)
		}
	}

	digest, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoOTP.Put(ctx, in.Phone, string(digest)); err != nil {
		slog.ErrorContext(ctx, "failed to repo put otp", "phone", in.Phone, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.sms.Send(ctx, in.Phone, s.otpMessage(code)); err != nil {
		slog.ErrorContext(ctx, "failed to send otp sms", "phone", in.Phone, "error", err)
		if sms.IsTimeout(err) {
			return goerror.NewUpstream(err, "Sending OTP timed out", goerror.CodeTimeout)
		}
		return goerror.NewUpstream(err, "Failed to send OTP", goerror.CodeNotification)
	}

	return nil
}
