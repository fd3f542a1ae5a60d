package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"formreply/backend/internal/domain"
)

// 缓存键前缀与过期时间
const (
	replyCountPrefix = "formreply:replycount:" // + formID:submissionID
	formPrefix       = "formreply:form:"       // + formID

	replyCountTTL = 5 * time.Minute
	formTTL       = 10 * time.Minute
)

// GetReplyCount 读取缓存的回复数量，未命中时返回 (0, false)。
func (c *Client) GetReplyCount(ctx context.Context, formID, submissionID string) (int, bool) {
	val, err := c.rdb.Get(ctx, replyCountKey(formID, submissionID)).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return count, true
}

// SetReplyCount 写入回复数量缓存。
func (c *Client) SetReplyCount(ctx context.Context, formID, submissionID string, count int) error {
	return c.rdb.Set(ctx, replyCountKey(formID, submissionID), count, replyCountTTL).Err()
}

// InvalidateReplyCount 在插入回复后使计数缓存失效。
func (c *Client) InvalidateReplyCount(ctx context.Context, formID, submissionID string) error {
	return c.rdb.Del(ctx, replyCountKey(formID, submissionID)).Err()
}

// GetForm 读取缓存的表单定义，未命中时返回 nil。
func (c *Client) GetForm(ctx context.Context, formID string) *domain.Form {
	data, err := c.rdb.Get(ctx, formPrefix+formID).Bytes()
	if err != nil {
		return nil
	}
	var form domain.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil
	}
	return &form
}

// SetForm 写入表单定义缓存（用于标题查询等热路径）。
func (c *Client) SetForm(ctx context.Context, form *domain.Form) error {
	data, err := json.Marshal(form)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, formPrefix+form.ID, data, formTTL).Err()
}

// FlushPrefix 清除指定前缀的全部缓存键（仅用于测试和运维）。
func (c *Client) FlushPrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	pipe := c.rdb.Pipeline()
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil && err != goredis.Nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

func replyCountKey(formID, submissionID string) string {
	return fmt.Sprintf("%s%s:%s", replyCountPrefix, formID, submissionID)
}
