// Package identity is the Postgres-backed identity provider: accounts keyed by
// canonical phone, the user directory, and session tokens.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 5 * time.Second

const (
	queryAccountByPhone = `SELECT uid, phone_formatted, phone_raw, created_at FROM auth_accounts WHERE phone_formatted = $1`
	queryAccountByUID   = `SELECT uid, phone_formatted, phone_raw, created_at FROM auth_accounts WHERE uid = $1`
	queryCreateAccount  = `INSERT INTO auth_accounts (uid, phone_formatted, phone_raw, created_at) VALUES ($1, $2, $3, $4)`
	queryCreateUser     = `INSERT INTO auth_users (id, uid, phone, phone_formatted, created_at) VALUES ($1, $2, $3, $4, $5)`
	queryUserExists     = `SELECT EXISTS (SELECT 1 FROM auth_users WHERE phone = $1)`
)

type Provider struct {
	conn    *pgxpool.Pool
	jwt     jwt.JWT
	timeout time.Duration
	ins     instrument.Instrumentation
}

// NewProvider bounds every call with timeout; zero means five seconds.
func NewProvider(conn *pgxpool.Pool, j jwt.JWT, timeout time.Duration, ins instrument.Instrumentation) *Provider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{conn: conn, jwt: j, timeout: timeout, ins: ins}
}

func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (p *Provider) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.ins.Tracer("auth.outbound.identity").Start(ctx, name)
}

func (p *Provider) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (p *Provider) FindByPhone(ctx context.Context, phoneFormatted string) (_ *entity.Account, err error) {
	ctx, span := p.startSpan(ctx, "FindByPhone")
	defer func() { p.endSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.findOne(ctx, queryAccountByPhone, phoneFormatted)
}

func (p *Provider) FindByUID(ctx context.Context, uid string) (_ *entity.Account, err error) {
	ctx, span := p.startSpan(ctx, "FindByUID")
	defer func() { p.endSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.findOne(ctx, queryAccountByUID, uid)
}

func (p *Provider) findOne(ctx context.Context, query, arg string) (*entity.Account, error) {
	var acc entity.Account
	err := p.conn.QueryRow(ctx, query, arg).Scan(&acc.UID, &acc.PhoneFormatted, &acc.PhoneRaw, &acc.CreatedAt)
	if err != nil {
		return nil, p.mapError(err)
	}
	return &acc, nil
}

// CreateAccount writes the account and its directory row in one transaction.
// A duplicate canonical phone returns goerror.ErrConflict.
func (p *Provider) CreateAccount(ctx context.Context, acc entity.NewAccount) (err error) {
	ctx, span := p.startSpan(ctx, "CreateAccount")
	defer func() { p.endSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tx, err := p.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, queryCreateAccount,
		acc.UID, acc.PhoneFormatted, acc.PhoneRaw, acc.CreatedAt); err != nil {
		return p.mapError(err)
	}

	if _, err := tx.Exec(ctx, queryCreateUser,
		acc.DirectoryID, acc.UID, acc.PhoneRaw, acc.PhoneFormatted, acc.CreatedAt); err != nil {
		return p.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return p.mapError(err)
	}

	return nil
}

// ExistsByPhone reports whether the user directory holds the raw phone.
func (p *Provider) ExistsByPhone(ctx context.Context, phoneRaw string) (_ bool, err error) {
	ctx, span := p.startSpan(ctx, "ExistsByPhone")
	defer func() { p.endSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var exists bool
	if err = p.conn.QueryRow(ctx, queryUserExists, phoneRaw).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (p *Provider) MintSessionToken(ctx context.Context, acc entity.Account) (_ string, err error) {
	_, span := p.startSpan(ctx, "MintSessionToken")
	defer func() { p.endSpan(span, err) }()

	return p.jwt.Generate(acc.UID, acc.PhoneFormatted)
}
