package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/chatapp/chatapp"
	"github.com/uptrace/bun"
)

type ActivityLog struct {
	bun.BaseModel `bun:"table:activity_log"`

	Id        int64                  `bun:",pk,autoincrement"`
	CreatedAt time.Time              `bun:",nullzero,notnull,default:current_timestamp"`
	UserId    int64                  `bun:",notnull"`
	Name      string                 `bun:",notnull"`
	Data      map[string]interface{} `bun:",notnull"`
}

func (l *ActivityLog) ToDomain() chatapp.ActivityLog {
	return chatapp.ActivityLog{
		Id:        l.Id,
		CreatedAt: l.CreatedAt,
		UserId:    chatapp.UserId(l.UserId),
		Name:      l.Name,
		Data:      l.Data,
	}
}

type ActivityStore struct {
	DB *bun.DB
}

var _ chatapp.ActivityStore = (*ActivityStore)(nil)

func (s *ActivityStore) AddLog(ctx context.Context, userId chatapp.UserId, activity chatapp.Activity) error {
	data := activity.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	_, err := s.DB.NewInsert().
		Model(&ActivityLog{
			UserId: int64(userId),
			Name:   activity.Name,
			Data:   data,
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func (s *ActivityStore) ByUserId(ctx context.Context, userId chatapp.UserId) ([]chatapp.ActivityLog, error) {
	var logs []ActivityLog
	err := s.DB.NewSelect().
		Model(&logs).
		Where("activity_log.user_id=?", int64(userId)).
		Order("activity_log.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	ml := make([]chatapp.ActivityLog, len(logs))
	for i := range logs {
		ml[i] = logs[i].ToDomain()
	}
	return ml, nil
}
