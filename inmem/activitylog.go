package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/chatapp/chatapp"
)

type ActivityStore struct {
	lastId int64
	logs   map[chatapp.UserId][]chatapp.ActivityLog
	mutex  sync.RWMutex
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		lastId: 0,
		logs:   make(map[chatapp.UserId][]chatapp.ActivityLog),
	}
}

var _ chatapp.ActivityStore = (*ActivityStore)(nil)

func (s *ActivityStore) AddLog(ctx context.Context, userId chatapp.UserId, activity chatapp.Activity) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lastId++
	s.logs[userId] = append(s.logs[userId], chatapp.ActivityLog{
		Id:        s.lastId,
		CreatedAt: time.Now().UTC(),
		UserId:    userId,
		Name:      activity.Name,
		Data:      activity.Data,
	})
	return nil
}

func (s *ActivityStore) ByUserId(ctx context.Context, userId chatapp.UserId) ([]chatapp.ActivityLog, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ulogs := s.logs[userId]
	logs := make([]chatapp.ActivityLog, len(ulogs))
	for i, log := range ulogs {
		logs[len(ulogs)-1-i] = log
	}
	return logs, nil
}
