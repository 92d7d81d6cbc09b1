package chatapp

import (
	"errors"
	"time"
)

var ErrImageMetaNotFound = errors.New("image meta not found")

// Metadata of the user's current profile image.
type ImageMeta struct {
	UserId   UserId
	UploadId string
	Size     int64
	Hash     string
	StoredAt time.Time
}

type ImageMetaStore interface {
	// Put replaces previous meta of the same user.
	Put(meta ImageMeta) error

	ByUserId(userId UserId) (ImageMeta, error)

	// Most recently stored first.
	Recent(limit int) ([]ImageMeta, error)
}
