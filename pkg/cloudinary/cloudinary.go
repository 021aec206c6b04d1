package cloudinary

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client uploads listing photos and avatars and removes them again.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
	DeleteByURL(ctx context.Context, url string) error
}

const (
	ImageWidth = 1200
	ThumbWidth = 300
)

// Eager transformation producing the listing card thumbnail.
const thumbEager = "q_auto,f_auto,w_300,h_300,c_fill"

var eagerAsyncFalse = false

// BuildThumbnailURL returns a delivery URL for publicID resized to width.
func BuildThumbnailURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = ThumbWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, width, publicID)
}

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		PublicID:       publicID,
		Transformation: fmt.Sprintf("c_limit,w_%d,q_auto", ImageWidth),
		Eager:          thumbEager,
		EagerAsync:     &eagerAsyncFalse,
	})
	if err != nil {
		return "", "", err
	}
	if result.Error.Message != "" {
		return "", "", fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	thumb := ""
	if len(result.Eager) > 0 {
		thumb = result.Eager[0].SecureURL
	}
	if thumb == "" {
		thumb = BuildThumbnailURL(c.cloudName, result.PublicID, ThumbWidth)
	}
	return result.SecureURL, thumb, nil
}

// DeleteByURL destroys the asset behind a delivery URL. URLs that are not
// Cloudinary image URLs are ignored.
func (c *clientImpl) DeleteByURL(ctx context.Context, rawURL string) error {
	id := PublicIDFromURL(rawURL)
	if id == "" {
		return nil
	}
	res, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v[0-9]+$`)

// PublicIDFromURL extracts the public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/c_fill,w_300/v1712/chezben/listings/abc.jpg.
func PublicIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(u.Host, "cloudinary.com") {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	idx := -1
	for i, p := range parts {
		if p == "upload" {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(parts)-1 {
		return ""
	}
	rest := parts[idx+1:]
	// the version segment, when present, follows any transformation
	for i, p := range rest {
		if versionSegment.MatchString(p) {
			rest = rest[i+1:]
			break
		}
	}
	if len(rest) > 0 && strings.Contains(rest[0], ",") {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return ""
	}
	id := strings.Join(rest, "/")
	return strings.TrimSuffix(id, path.Ext(id))
}

func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{cloudName: cloudName, uploader: up}, nil
}
