// Package uploader pushes media to Cloudinary and hands back the CDN URL
// stored on post and profile documents.
package uploader

import (
	"context"
	"io"

	"hellofeed/internal/config"
	"hellofeed/internal/utils"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	postFolder   = "posts"
	avatarFolder = "avatars"
)

// Uploader wraps the Cloudinary client. Construct it once at startup; a
// nil *Uploader is a valid "uploads disabled" instance.
type Uploader struct {
	cld *cloudinary.Cloudinary
}

// New builds an Uploader from the configured credentials.
func New(cfg *config.CloudinaryConfig) (*Uploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrUploadFailed, "cloudinary init failed", err)
	}
	return &Uploader{cld: cld}, nil
}

// UploadPostImage stores a post image and returns its https URL.
func (u *Uploader) UploadPostImage(ctx context.Context, file io.Reader) (string, error) {
	return u.upload(ctx, file, postFolder)
}

// UploadAvatar stores a profile picture and returns its https URL.
func (u *Uploader) UploadAvatar(ctx context.Context, file io.Reader) (string, error) {
	return u.upload(ctx, file, avatarFolder)
}

func (u *Uploader) upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	if u == nil {
		return "", utils.NewAppError(utils.ErrUploadFailed, "media uploads are not configured", nil)
	}
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", utils.NewAppError(utils.ErrUploadFailed, "cloudinary upload failed", err)
	}
	if resp.Error.Message != "" {
		return "", utils.NewAppError(utils.ErrUploadFailed, resp.Error.Message, nil)
	}
	return resp.SecureURL, nil
}
