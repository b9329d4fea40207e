package inbound

import (
	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes the phone OTP sign-in flow over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues a one-time code to the phone by SMS.
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	if err := h.sendOTP(r); err != nil {
		return nil, err
	}

	return SendOTPResponse{}, nil
}

// VerifyOTP exchanges a valid code for a session token.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	resp, err := h.verifyOTP(r)
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{Token: resp.Token, UID: resp.UID}, nil
}

func (h *HTTPEndpoint) UserExists(r *router.Request) (any, error) {
	resp, err := h.userExists(r)
	if err != nil {
		return nil, err
	}

	return UserExistsResponse{Exists: resp.Exists}, nil
}

func (h *HTTPEndpoint) LegacySendOTP(r *router.Request) (any, error) {
	if err := h.sendOTP(r); err != nil {
		return nil, err
	}

	return LegacySendOTPResponse{Message: SendOTPResponse{}.Message()}, nil
}

func (h *HTTPEndpoint) LegacyVerifyOTP(r *router.Request) (any, error) {
	resp, err := h.verifyOTP(r)
	if err != nil {
		return nil, err
	}

	return LegacyVerifyOTPResponse{
		Token:   resp.Token,
		UID:     resp.UID,
		Message: VerifyOTPResponse{}.Message(),
	}, nil
}

func (h *HTTPEndpoint) LegacyUserExists(r *router.Request) (any, error) {
	resp, err := h.userExists(r)
	if err != nil {
		return nil, err
	}

	return LegacyUserExistsResponse{Exists: resp.Exists}, nil
}

// Profile returns the account behind the session token.
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		UID:            resp.UID,
		Phone:          resp.Phone,
		PhoneFormatted: resp.PhoneFormatted,
		CreatedAt:      resp.CreatedAt,
	}, nil
}

func (h *HTTPEndpoint) sendOTP(r *router.Request) error {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return err
	}

	return h.uc.IssueOTP(r.Context(), usecase.IssueOTPInput{Phone: req.Phone})
}

func (h *HTTPEndpoint) verifyOTP(r *router.Request) (*usecase.VerifyOTPOutput, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Phone: req.Phone,
		Code:  req.OTP,
	})
}

func (h *HTTPEndpoint) userExists(r *router.Request) (*usecase.UserExistsOutput, error) {
	var req UserExistsRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return h.uc.UserExists(r.Context(), usecase.UserExistsInput{Phone: req.Phone})
}
