package persistent

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chatapp/chatapp"
	"github.com/tidwall/buntdb"
)

type ImageMeta struct {
	UserId   int64     `json:"userId"`
	UploadId string    `json:"uploadId"`
	Size     int64     `json:"size"`
	Hash     string    `json:"hash"`
	StoredAt time.Time `json:"storedAt"`

	// Numeric copy of StoredAt, ordering key of image_metas index.
	StoredAtNano int64 `json:"storedAtNano"`
}

func (m ImageMeta) ToDomain() chatapp.ImageMeta {
	return chatapp.ImageMeta{
		UserId:   chatapp.UserId(m.UserId),
		UploadId: m.UploadId,
		Size:     m.Size,
		Hash:     m.Hash,
		StoredAt: m.StoredAt,
	}
}

// Keeps meta of current profile images in buntdb under "image_meta:<user id>".
type ImageMetaStore struct {
	Buntdb *buntdb.DB
}

var _ chatapp.ImageMetaStore = (*ImageMetaStore)(nil)

func imageMetaKey(userId chatapp.UserId) string {
	return "image_meta:" + userId.String()
}

func (s *ImageMetaStore) CreateIndexes() error {
	err := s.Buntdb.CreateIndex("image_metas", "image_meta:*", buntdb.IndexJSON("storedAtNano"))
	if err != nil && !errors.Is(err, buntdb.ErrIndexExists) {
		return fmt.Errorf("create image_metas index: %w", err)
	}
	return nil
}

func (s *ImageMetaStore) Put(meta chatapp.ImageMeta) error {
	serialized, err := json.Marshal(ImageMeta{
		UserId:       int64(meta.UserId),
		UploadId:     meta.UploadId,
		Size:         meta.Size,
		Hash:         meta.Hash,
		StoredAt:     meta.StoredAt.UTC(),
		StoredAtNano: meta.StoredAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("serialize image meta: %w", err)
	}

	err = s.Buntdb.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(imageMetaKey(meta.UserId), string(serialized), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("bunt update: %w", err)
	}
	return nil
}

func (s *ImageMetaStore) ByUserId(userId chatapp.UserId) (chatapp.ImageMeta, error) {
	var meta ImageMeta
	err := s.Buntdb.View(func(tx *buntdb.Tx) error {
		serialized, err := tx.Get(imageMetaKey(userId))
		if err != nil {
			return fmt.Errorf("get serialized image meta: %w", err)
		}
		if err := json.Unmarshal([]byte(serialized), &meta); err != nil {
			return fmt.Errorf("deserialize image meta: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return chatapp.ImageMeta{}, chatapp.ErrImageMetaNotFound
		}
		return chatapp.ImageMeta{}, fmt.Errorf("buntdb view: %w", err)
	}
	return meta.ToDomain(), nil
}

// Most recently stored images first, up to limit.
func (s *ImageMetaStore) Recent(limit int) ([]chatapp.ImageMeta, error) {
	if limit <= 0 {
		return []chatapp.ImageMeta{}, nil
	}
	metas := make([]chatapp.ImageMeta, 0, limit)
	var listErr error
	err := s.Buntdb.View(func(tx *buntdb.Tx) error {
		return tx.Descend("image_metas", func(key, value string) bool {
			if len(metas) >= limit {
				return false
			}
			var meta ImageMeta
			if err := json.Unmarshal([]byte(value), &meta); err != nil {
				listErr = fmt.Errorf("deserialize image meta %s: %w", key, err)
				return false
			}
			metas = append(metas, meta.ToDomain())
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("descend image metas: %w", err)
	}
	if listErr != nil {
		return nil, listErr
	}
	return metas, nil
}
