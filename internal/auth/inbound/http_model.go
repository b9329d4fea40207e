package inbound

import "time"

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

type SendOTPResponse struct{}

func (SendOTPResponse) Message() string { return "OTP sent" }

func (SendOTPResponse) Data() any { return nil }

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	Token string `json:"token"`
	UID   string `json:"uid"`
}

func (VerifyOTPResponse) Message() string { return "OTP verified and token generated" }

type UserExistsRequest struct {
	Phone string `json:"phone"`
}

type UserExistsResponse struct {
	Exists bool `json:"exists"`
}

type ProfileResponse struct {
	UID            string    `json:"uid"`
	Phone          string    `json:"phone"`
	PhoneFormatted string    `json:"phone_formatted"`
	CreatedAt      time.Time `json:"created_at"`
}

// LegacySendOTPResponse is the body of POST /sendOtp.
type LegacySendOTPResponse struct {
	Message string `json:"message"`
}

func (r LegacySendOTPResponse) Body() any { return r }

// LegacyVerifyOTPResponse is the body of POST /verifyOtp.
type LegacyVerifyOTPResponse struct {
	Token   string `json:"token"`
	UID     string `json:"uid"`
	Message string `json:"message"`
}

func (r LegacyVerifyOTPResponse) Body() any { return r }

// LegacyUserExistsResponse is the body of POST /checkUserExists.
type LegacyUserExistsResponse struct {
	Exists bool `json:"exists"`
}

func (r LegacyUserExistsResponse) Body() any { return r }
