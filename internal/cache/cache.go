package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// Source 是缓存背后的数据源，通常是 repository
type Source interface {
	ListQuestionTemplates(ctx context.Context, vehicleID int64) ([]domain.ChecklistItemTemplate, error)
	GetRotationRules(ctx context.Context, vehicleID int64) (*domain.RotationRules, error)
}

// Store 为题库和轮换规则提供读穿缓存。redis 不可用时直接读数据源，不影响抽题
type Store struct {
	rdb    redis.Cmdable
	src    Source
	ttl    time.Duration
	logger *slog.Logger
}

// 车辆没有配置规则时缓存这个值，避免每次都查数据库
const noRules = "null"

func New(rdb redis.Cmdable, src Source, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		rdb:    rdb,
		src:    src,
		ttl:    ttl,
		logger: logger,
	}
}

func bankKey(vehicleID int64) string {
	return fmt.Sprintf("checklist:bank:%d", vehicleID)
}

func rulesKey(vehicleID int64) string {
	return fmt.Sprintf("checklist:rules:%d", vehicleID)
}

func (s *Store) ListQuestionTemplates(ctx context.Context, vehicleID int64) ([]domain.ChecklistItemTemplate, error) {
	key := bankKey(vehicleID)

	if raw, ok := s.get(ctx, key); ok {
		var bank []domain.ChecklistItemTemplate
		if err := json.Unmarshal(raw, &bank); err == nil {
			return bank, nil
		}
		s.logger.Warn("题库缓存已损坏", "key", key)
	}

	bank, err := s.src.ListQuestionTemplates(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	s.set(ctx, key, bank)
	return bank, nil
}

func (s *Store) GetRotationRules(ctx context.Context, vehicleID int64) (*domain.RotationRules, error) {
	key := rulesKey(vehicleID)

	if raw, ok := s.get(ctx, key); ok {
		if string(raw) == noRules {
			return nil, sql.ErrNoRows
		}
		rules := &domain.RotationRules{}
		if err := json.Unmarshal(raw, rules); err == nil {
			return rules, nil
		}
		s.logger.Warn("轮换规则缓存已损坏", "key", key)
	}

	rules, err := s.src.GetRotationRules(ctx, vehicleID)
	switch {
	case err == nil:
		s.set(ctx, key, rules)
		return rules, nil
	case errors.Is(err, sql.ErrNoRows):
		s.set(ctx, key, nil)
		return nil, err
	default:
		return nil, err
	}
}

// Invalidate 在题库或规则被修改后调用
func (s *Store) Invalidate(ctx context.Context, vehicleID int64) {
	if err := s.rdb.Del(ctx, bankKey(vehicleID), rulesKey(vehicleID)).Err(); err != nil {
		s.logger.Warn("无法清除缓存", "vehicleID", vehicleID, "error", err)
	}
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return raw, true
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Warn("读取缓存失败", "key", key, "error", err)
	}
	return nil, false
}

func (s *Store) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("无法序列化缓存", "key", key, "error", err)
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("写入缓存失败", "key", key, "error", err)
	}
}
