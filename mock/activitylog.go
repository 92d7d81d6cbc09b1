package mock

import (
	"context"

	"github.com/chatapp/chatapp"
)

type ActivityStore struct {
	AddLogFn func(ctx context.Context, userId chatapp.UserId, activity chatapp.Activity) error

	ByUserIdFn func(ctx context.Context, userId chatapp.UserId) ([]chatapp.ActivityLog, error)
}

func (s ActivityStore) AddLog(ctx context.Context, userId chatapp.UserId, activity chatapp.Activity) error {
	return s.AddLogFn(ctx, userId, activity)
}

func (s ActivityStore) ByUserId(ctx context.Context, userId chatapp.UserId) ([]chatapp.ActivityLog, error) {
	return s.ByUserIdFn(ctx, userId)
}
