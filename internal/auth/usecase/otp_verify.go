package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
)

type VerifyOTPInput struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"otp" validate:"required"`
}

type VerifyOTPOutput struct {
	Token string
	UID   string
}

// VerifyOTP checks the code, then the expiry window, reconciles the phone with
// an account and mints a session token. The code check runs first, so a wrong
// code on an expired record reports ErrOTPInvalid and keeps the record.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Phone = strings.TrimSpace(in.Phone)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rec, err := s.repoOTP.Get(ctx, in.Phone)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp not found", "phone", in.Phone)
		return nil, ErrOTPNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp", "phone", in.Phone, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.codeMatches(in.Phone, in.Code, rec) {
		slog.WarnContext(ctx, "otp mismatch", "phone", in.Phone)
		return nil, ErrOTPInvalid
	}

	if rec.Expired(s.clock.Now(), s.otpExpiry()) {
		if err := s.repoOTP.Delete(ctx, in.Phone); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete expired otp", "phone", in.Phone, "error", err)
			return nil, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "otp expired", "phone", in.Phone, "created_at", rec.CreatedAt)
		return nil, ErrOTPExpired
	}

	acc, created, err := s.findOrCreateAccount(ctx, in.Phone)
	if err != nil {
		return nil, err
	}

	if created {
		if err := s.repoMessaging.PublishAccountCreated(ctx, AccountCreatedEvent{
			UID:            acc.UID,
			Phone:          acc.PhoneRaw,
			PhoneFormatted: acc.PhoneFormatted,
			CreatedAt:      acc.CreatedAt,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish account created", "uid", acc.UID, "error", err)
		}
	}

	token, err := s.repoIdentity.MintSessionToken(ctx, *acc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to mint session token", "uid", acc.UID, "error", err)
		return nil, identityProviderError(err)
	}

	if err := s.repoOTP.Delete(ctx, in.Phone); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete used otp", "phone", in.Phone, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &VerifyOTPOutput{Token: token, UID: acc.UID}, nil
}

func (s *Usecase) codeMatches(phoneRaw, code string, rec *entity.OTP) bool {
	if s.isTestIdentity(phoneRaw) {
		return code == testIdentityCode
	}
	return s.hmac.Verify(rec.Code, code)
}

// findOrCreateAccount returns the account of the canonical phone, creating it
// when absent. A concurrent creation loses on the unique phone constraint and
// adopts the winner's account.
func (s *Usecase) findOrCreateAccount(ctx context.Context, raw string) (*entity.Account, bool, error) {
	formatted := phone.Normalize(raw)

	acc, err := s.repoIdentity.FindByPhone(ctx, formatted)
	if err == nil {
		return acc, false, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo find account by phone", "phone", formatted, "error", err)
		return nil, false, identityProviderError(err)
	}

	na := entity.NewAccount{
		UID:            s.uuid.Generate(),
		DirectoryID:    s.uid.Generate(),
		PhoneFormatted: formatted,
		PhoneRaw:       raw,
		CreatedAt:      s.clock.Now(),
	}

	err = s.repoIdentity.CreateAccount(ctx, na)
	if errors.Is(err, goerror.ErrConflict) {
		slog.InfoContext(ctx, "account created concurrently, adopting existing", "phone", formatted)

		acc, err = s.repoIdentity.FindByPhone(ctx, formatted)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo re-read account by phone", "phone", formatted, "error", err)
			return nil, false, identityProviderError(err)
		}
		return acc, false, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create account", "phone", formatted, "error", err)
		return nil, false, identityProviderError(err)
	}

	return &entity.Account{
		UID:            na.UID,
		PhoneFormatted: na.PhoneFormatted,
		PhoneRaw:       na.PhoneRaw,
		CreatedAt:      na.CreatedAt,
	}, true, nil
}
