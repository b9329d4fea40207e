package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	IssueOTP(ctx context.Context, in usecase.IssueOTPInput) error
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	UserExists(ctx context.Context, in usecase.UserExistsInput) (*usecase.UserExistsOutput, error)
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.PublicPOST("/api/v1/auth/otp/send", end.SendOTP)
	r.PublicPOST("/api/v1/auth/otp/verify", end.VerifyOTP)
	r.PublicPOST("/api/v1/auth/users/exists", end.UserExists)

	// Paths the released mobile app still calls. They answer with flat bodies.
	r.PublicPOST("/sendOtp", end.LegacySendOTP)
	r.PublicPOST("/verifyOtp", end.LegacyVerifyOTP)
	r.PublicPOST("/checkUserExists", end.LegacyUserExists)

	r.GET("/api/v1/auth/me", end.Profile)
}
