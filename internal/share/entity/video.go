package entity

import "strings"

// Video is the share metadata of one catalogue entry. Empty fields are unknown.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Category     string `json:"category"`
	Director     string `json:"director"`
	Duration     string `json:"duration"`
	ReleaseYear  string `json:"release_year"`
	Starcast     string `json:"starcast"`
	VideoURL     string `json:"video_url"`
}

type Platform int

const (
	PlatformWeb Platform = iota
	PlatformIOS
	PlatformAndroid
)

func (p Platform) String() string {
	switch p {
	case PlatformIOS:
		return "ios"
	case PlatformAndroid:
		return "android"
	default:
		return "web"
	}
}

// PlatformFromUserAgent picks the store a visitor is sent to.
func PlatformFromUserAgent(ua string) Platform {
	switch {
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return PlatformIOS
	case strings.Contains(ua, "Android"):
		return PlatformAndroid
	default:
		return PlatformWeb
	}
}
