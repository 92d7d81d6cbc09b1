package mock

import (
	"context"
	"io"

	"github.com/chatapp/chatapp"
)

type ProfileImageStore struct {
	StoreFn func(ctx context.Context, userId chatapp.UserId, r io.Reader) (chatapp.StoredImage, error)
}

func (s ProfileImageStore) Store(ctx context.Context, userId chatapp.UserId, r io.Reader) (chatapp.StoredImage, error) {
	return s.StoreFn(ctx, userId, r)
}

type ProfileImageLocator struct {
	LocateFn func(ctx context.Context, userId chatapp.UserId) chatapp.Lookup
}

func (l ProfileImageLocator) Locate(ctx context.Context, userId chatapp.UserId) chatapp.Lookup {
	return l.LocateFn(ctx, userId)
}
