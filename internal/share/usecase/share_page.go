package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/share/entity"
)

const (
	defaultTitle         = "Check out this video!"
	defaultDescription   = "Shared from VideosAlarm"
	defaultThumbnailURL  = "https://www.videosalarm.com/default-image.png"
	defaultAppLinkPrefix = "videosalarm://video/"
	defaultAppStoreURL   = "https://apps.apple.com/app/id6459475100"
	defaultPlayStoreURL  = "https://play.google.com/store/apps/details?id=com.videosalarm.app"
	defaultWebsiteURL    = "https://www.videosalarm.com"
	defaultFallbackDelay = 2500
)

type SharePageInput struct {
	VideoID   string `validate:"required,videoid"`
	UserAgent string
}

type SharePageOutput struct {
	Video           entity.Video
	Platform        entity.Platform
	AppURL          string
	FallbackURL     string
	StoreName       string
	FallbackDelayMS int
}

// SharePage resolves what the share landing page of a video shows. Unknown
// videos get the default title, description and thumbnail.
func (s *Usecase) SharePage(ctx context.Context, in SharePageInput) (*SharePageOutput, error) {
	ctx, span := s.startSpan(ctx, "SharePage")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	video, err := s.loadVideo(ctx, in.VideoID)
	if err != nil {
		return nil, err
	}

	if video.Title == "" {
		video.Title = defaultTitle
	}
	if video.Description == "" {
		video.Description = defaultDescription
	}
	if video.ThumbnailURL == "" {
		video.ThumbnailURL = s.configOr("modules.share.default_thumbnail_url", defaultThumbnailURL)
	}

	out := &SharePageOutput{
		Video:           video,
		Platform:        entity.PlatformFromUserAgent(in.UserAgent),
		AppURL:          s.configOr("modules.share.app_link_prefix", defaultAppLinkPrefix) + in.VideoID,
		FallbackDelayMS: s.cfg.GetInt("modules.share.fallback_delay_ms"),
	}
	if out.FallbackDelayMS <= 0 {
		out.FallbackDelayMS = defaultFallbackDelay
	}

	switch out.Platform {
	case entity.PlatformIOS:
		out.FallbackURL = s.configOr("modules.share.app_store_url", defaultAppStoreURL)
		out.StoreName = "the App Store"
	case entity.PlatformAndroid:
		out.FallbackURL = s.configOr("modules.share.play_store_url", defaultPlayStoreURL)
		out.StoreName = "the Play Store"
	default:
		out.FallbackURL = s.configOr("modules.share.website_url", defaultWebsiteURL)
		out.StoreName = "our website"
	}

	slog.InfoContext(ctx, "loaded share metadata", "video_id", in.VideoID, "title", video.Title, "platform", out.Platform.String())

	return out, nil
}

// loadVideo reads through the cache. A cache failure falls back to the
// database; a missing video yields an empty record.
func (s *Usecase) loadVideo(ctx context.Context, id string) (entity.Video, error) {
	cached, err := s.repoCache.GetVideo(ctx, id)
	if err == nil {
		return *cached, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "failed to cache get video", "video_id", id, "error", err)
	}

	video, err := s.repoDB.GetVideo(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.InfoContext(ctx, "video not found, using defaults", "video_id", id)
		return entity.Video{ID: id}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get video", "video_id", id, "error", err)
		return entity.Video{}, goerror.NewServer(err)
	}

	if err := s.repoCache.SetVideo(ctx, *video); err != nil {
		slog.WarnContext(ctx, "failed to cache set video", "video_id", id, "error", err)
	}

	return *video, nil
}
