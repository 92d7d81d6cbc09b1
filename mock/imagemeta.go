package mock

import (
	"github.com/chatapp/chatapp"
)

type ImageMetaStore struct {
	PutFn      func(meta chatapp.ImageMeta) error
	ByUserIdFn func(userId chatapp.UserId) (chatapp.ImageMeta, error)
	RecentFn   func(limit int) ([]chatapp.ImageMeta, error)
}

func (s ImageMetaStore) Put(meta chatapp.ImageMeta) error {
	return s.PutFn(meta)
}

func (s ImageMetaStore) ByUserId(userId chatapp.UserId) (chatapp.ImageMeta, error) {
	return s.ByUserIdFn(userId)
}

func (s ImageMetaStore) Recent(limit int) ([]chatapp.ImageMeta, error) {
	return s.RecentFn(limit)
}
