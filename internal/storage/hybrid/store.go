// Package hybrid 组合 SQL 持久化与 Redis 缓存：
// 回复计数和表单定义走缓存，其余操作直通 SQL 存储。
package hybrid

import (
	"context"
	"time"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/storage"
	redisstore "formreply/backend/internal/storage/redis"
	sqlstore "formreply/backend/internal/storage/sql"
)

// Store SQL + Redis 混合存储
type Store struct {
	*sqlstore.Store
	cache *redisstore.Client
}

var _ storage.Store = (*Store)(nil)

// NewStore 创建混合存储。
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
	redisCfg redisstore.Config,
) (*Store, error) {
	sqlStore, err := sqlstore.NewStore(driverName, dsn, maxOpenConns, maxIdleConns, connMaxLifetime)
	if err != nil {
		return nil, err
	}

	cache, err := redisstore.New(redisCfg)
	if err != nil {
		sqlStore.Close()
		return nil, err
	}

	return &Store{Store: sqlStore, cache: cache}, nil
}

// SaveReply 写入回复并使对应的计数缓存失效。
func (s *Store) SaveReply(reply *domain.Reply) error {
	if err := s.Store.SaveReply(reply); err != nil {
		return err
	}
	// 缓存失效失败不影响写入结果，下一次计数会穿透到数据库
	_ = s.cache.InvalidateReplyCount(context.Background(), reply.FormID, reply.SubmissionID)
	return nil
}

// CountReplies 带缓存的回复计数。
func (s *Store) CountReplies(formID, submissionID string) (int, error) {
	ctx := context.Background()
	if count, ok := s.cache.GetReplyCount(ctx, formID, submissionID); ok {
		return count, nil
	}

	count, err := s.Store.CountReplies(formID, submissionID)
	if err != nil {
		return 0, err
	}
	_ = s.cache.SetReplyCount(ctx, formID, submissionID, count)
	return count, nil
}

// GetForm 带缓存的表单定义查询。
func (s *Store) GetForm(id string) (*domain.Form, error) {
	ctx := context.Background()
	if form := s.cache.GetForm(ctx, id); form != nil {
		return form, nil
	}

	form, err := s.Store.GetForm(id)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetForm(ctx, form)
	return form, nil
}

// Cache 返回底层缓存客户端。
func (s *Store) Cache() *redisstore.Client {
	return s.cache
}

// Close 关闭数据库与缓存连接。
func (s *Store) Close() error {
	err := s.Store.Close()
	if cerr := s.cache.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Health 同时检查数据库与缓存。
func (s *Store) Health() error {
	if err := s.Store.Health(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.cache.Ping(ctx)
}
