package core

import "context"

// Asset is a file hosted on the media service.
type Asset struct {
	PublicID string `json:"public_id" bson:"public_id"`
	URL      string `json:"url" bson:"url"`
}

func (a Asset) IsZero() bool { return a.PublicID == "" && a.URL == "" }

// MediaService is any service that can host uploaded files (avatars,
// course thumbnails, layout banners).
type MediaService interface {
	// Upload stores content under a folder and returns the hosted Asset.
	// Content is a base64 data URL or raw base64 payload as sent by clients.
	Upload(ctx context.Context, folder, content string) (Asset, error)
	// Destroy removes a previously uploaded asset. Destroying an absent
	// asset is not an error.
	Destroy(ctx context.Context, publicID string) error
}
