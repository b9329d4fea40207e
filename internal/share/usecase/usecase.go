package usecase

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/shandysiswandi/otpgate/internal/share/entity"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetVideo(ctx context.Context, id string) (*entity.Video, error)
}

type repoCache interface {
	GetVideo(ctx context.Context, id string) (*entity.Video, error)
	SetVideo(ctx context.Context, v entity.Video) error
}

type Usecase struct {
	repoDB    repoDB
	repoCache repoCache
	validator validator.Validator
	cfg       config.Config
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoCache  repoCache
	Validator  validator.Validator
	Config     config.Config
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoCache: dep.RepoCache,
		validator: dep.Validator,
		cfg:       dep.Config,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("share.usecase").Start(ctx, name)
}

func (s *Usecase) configOr(key, fallback string) string {
	if v := s.cfg.GetString(key); v != "" {
		return v
	}
	return fallback
}
