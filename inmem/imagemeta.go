package inmem

import (
	"sort"
	"sync"

	"github.com/chatapp/chatapp"
)

type ImageMetaStore struct {
	metas map[chatapp.UserId]chatapp.ImageMeta
	mutex sync.RWMutex
}

func NewImageMetaStore() *ImageMetaStore {
	return &ImageMetaStore{
		metas: make(map[chatapp.UserId]chatapp.ImageMeta),
	}
}

var _ chatapp.ImageMetaStore = (*ImageMetaStore)(nil)

func (s *ImageMetaStore) Put(meta chatapp.ImageMeta) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.metas[meta.UserId] = meta
	return nil
}

func (s *ImageMetaStore) ByUserId(userId chatapp.UserId) (chatapp.ImageMeta, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	meta, ok := s.metas[userId]
	if !ok {
		return chatapp.ImageMeta{}, chatapp.ErrImageMetaNotFound
	}
	return meta, nil
}

func (s *ImageMetaStore) Recent(limit int) ([]chatapp.ImageMeta, error) {
	if limit <= 0 {
		return []chatapp.ImageMeta{}, nil
	}

	s.mutex.RLock()
	metas := make([]chatapp.ImageMeta, 0, len(s.metas))
	for _, meta := range s.metas {
		metas = append(metas, meta)
	}
	s.mutex.RUnlock()

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].StoredAt.After(metas[j].StoredAt)
	})
	if len(metas) > limit {
		metas = metas[:limit]
	}
	return metas, nil
}
