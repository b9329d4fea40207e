package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/otpstore"
	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

var reCode = regexp.MustCompile(`\b\d{6}\b`)

type lastSMS struct {
	mu   sync.Mutex
	text map[string]string
}

func (l *lastSMS) Send(_ context.Context, phone, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text[phone] = text
	return nil
}

func (l *lastSMS) code(t *testing.T, phone string) string {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	code := reCode.FindString(l.text[phone])
	require.NotEmpty(t, code, "no code sent to %s", phone)
	return code
}

type memoryIdentity struct {
	mu       sync.Mutex
	accounts map[string]entity.Account
	jwt      jwt.JWT
}

func (m *memoryIdentity) FindByPhone(_ context.Context, phoneFormatted string) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[phoneFormatted]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &acc, nil
}

func (m *memoryIdentity) FindByUID(_ context.Context, id string) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.UID == id {
			return &acc, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memoryIdentity) CreateAccount(_ context.Context, acc entity.NewAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[acc.PhoneFormatted]; ok {
		return goerror.ErrConflict
	}
	m.accounts[acc.PhoneFormatted] = entity.Account{
		UID:            acc.UID,
		PhoneFormatted: acc.PhoneFormatted,
		PhoneRaw:       acc.PhoneRaw,
		CreatedAt:      acc.CreatedAt,
	}
	return nil
}

func (m *memoryIdentity) ExistsByPhone(_ context.Context, phoneRaw string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.PhoneRaw == phoneRaw {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryIdentity) MintSessionToken(_ context.Context, acc entity.Account) (string, error) {
	return m.jwt.Generate(acc.UID, acc.PhoneFormatted)
}

type noopPublisher struct{}

func (noopPublisher) PublishAccountCreated(context.Context, usecase.AccountCreatedEvent) error {
	return nil
}

type envelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func newServer(t *testing.T) (*httptest.Server, *lastSMS) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  auth:\n    otp:\n      expiry_seconds: 300\n"))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflakeNode(2)
	require.NoError(t, err)

	clk := clock.New()
	uuid := uid.NewUUID()
	ins := instrument.NewNoop()

	j, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(testSecret),
		Issuer: "otpgate",
		TTL:    time.Hour,
		Clock:  clk,
		UUID:   uuid,
	})
	require.NoError(t, err)

	sender := &lastSMS{text: map[string]string{}}

	uc := usecase.New(usecase.Dependency{
		RepoOTP:       otpstore.NewMemory(clk),
		RepoIdentity:  &memoryIdentity{accounts: map[string]entity.Account{}, jwt: j},
		RepoMessaging: noopPublisher{},
		Limiter:       ratelimit.Unlimited{},
		SMS:           sender,
		Code:          otp.NewSixDigit(),
		HMAC:          hash.NewHMACSHA256("test"),
		UUID:          uuid,
		UID:           sf,
		Clock:         clk,
		Validator:     v,
		Config:        cfg,
		Instrument:    ins,
	})

	r := router.NewRouter(router.Config{Config: cfg, UUID: uuid, JWT: j, Instrument: ins})
	RegisterHTTPEndpoint(r, uc)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, sender
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, token string) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func callFlat(t *testing.T, srv *httptest.Server, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	resp, err := srv.Client().Post(srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHTTP_SignInFlow(t *testing.T) {
	t.Parallel()

	// Arrange
	srv, sender := newServer(t)

	status, env := call(t, srv, http.MethodPost, "/api/v1/auth/users/exists", map[string]string{"phone": "9876543210"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"exists":false}`, string(env.Data))

	// Act
	status, env = call(t, srv, http.MethodPost, "/api/v1/auth/otp/send", map[string]string{"phone": "9876543210"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OTP sent", env.Message)
	assert.Empty(t, env.Data)

	status, env = call(t, srv, http.MethodPost, "/api/v1/auth/otp/verify",
		map[string]string{"phone": "9876543210", "otp": sender.code(t, "9876543210")}, "")

	// Assert
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OTP verified and token generated", env.Message)

	var verified VerifyOTPResponse
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.NotEmpty(t, verified.Token)
	assert.NotEmpty(t, verified.UID)

	status, env = call(t, srv, http.MethodPost, "/api/v1/auth/users/exists", map[string]string{"phone": "9876543210"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"exists":true}`, string(env.Data))

	status, env = call(t, srv, http.MethodGet, "/api/v1/auth/me", nil, verified.Token)
	require.Equal(t, http.StatusOK, status)

	var profile ProfileResponse
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, verified.UID, profile.UID)
	assert.Equal(t, "+919876543210", profile.PhoneFormatted)
	assert.Equal(t, "9876543210", profile.Phone)
}

func TestHTTP_Errors(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	t.Run("missing phone", func(t *testing.T) {
		status, env := call(t, srv, http.MethodPost, "/sendOtp", map[string]string{}, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "ERROR_CODE_INVALID_INPUT", env.Code)
		assert.Contains(t, env.Error, "phone")
	})

	t.Run("invalid body", func(t *testing.T) {
		status, env := call(t, srv, http.MethodPost, "/verifyOtp", "not-an-object", "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "ERROR_CODE_INVALID_FORMAT", env.Code)
	})

	t.Run("never issued", func(t *testing.T) {
		status, env := call(t, srv, http.MethodPost, "/verifyOtp", map[string]string{"phone": "1112223334", "otp": "123123"}, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "OTP not found or already used", env.Message)
		assert.Equal(t, "ERROR_CODE_OTP_NOT_FOUND", env.Code)
	})

	t.Run("wrong code", func(t *testing.T) {
		_, _ = call(t, srv, http.MethodPost, "/sendOtp", map[string]string{"phone": "5556667778"}, "")

		status, env := call(t, srv, http.MethodPost, "/verifyOtp", map[string]string{"phone": "5556667778", "otp": "abcdef"}, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid OTP", env.Message)
		assert.Equal(t, "ERROR_CODE_OTP_INVALID", env.Code)
	})

	t.Run("missing otp names the request field", func(t *testing.T) {
		status, env := call(t, srv, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"phone": "9876543210"}, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "ERROR_CODE_INVALID_INPUT", env.Code)
		assert.Contains(t, env.Error, "otp")
		assert.NotContains(t, env.Error, "code")
	})

	t.Run("profile without token", func(t *testing.T) {
		status, env := call(t, srv, http.MethodGet, "/api/v1/auth/me", nil, "")

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "ERROR_CODE_UNAUTHORIZED", env.Code)
	})
}

func TestHTTP_LegacyRoutesFlatBodies(t *testing.T) {
	t.Parallel()

	// Arrange
	srv, sender := newServer(t)

	// Act
	sendStatus, sent := callFlat(t, srv, "/sendOtp", map[string]string{"phone": "9123456780"})
	verifyStatus, verified := callFlat(t, srv, "/verifyOtp",
		map[string]string{"phone": "9123456780", "otp": sender.code(t, "9123456780")})
	existsStatus, exists := callFlat(t, srv, "/checkUserExists", map[string]string{"phone": "9123456780"})

	// Assert
	require.Equal(t, http.StatusOK, sendStatus)
	assert.Equal(t, map[string]any{"message": "OTP sent"}, sent)

	require.Equal(t, http.StatusOK, verifyStatus)
	assert.Equal(t, "OTP verified and token generated", verified["message"])
	assert.NotEmpty(t, verified["token"])
	assert.NotEmpty(t, verified["uid"])
	assert.NotContains(t, verified, "data")

	require.Equal(t, http.StatusOK, existsStatus)
	assert.Equal(t, map[string]any{"exists": true}, exists)
}

func TestHTTP_LegacyRoutesErrors(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	status, body := callFlat(t, srv, "/verifyOtp", map[string]string{"phone": "4445556667", "otp": "123123"})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "OTP not found or already used", body["message"])
}
