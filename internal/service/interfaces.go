package service

import (
	"context"
	"io"
)

// Notifier creates user notifications; moderation uses it fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, userID uint, title, message, link string) error
}

// Pusher delivers realtime events to connected users.
type Pusher interface {
	Push(userID uint, eventType string, data interface{})
}

// ImageStore uploads and removes listing and avatar images.
type ImageStore interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
	DeleteByURL(ctx context.Context, url string) error
}
