package cache

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// ── 测试辅助 ──

// fakeRedis 只实现缓存用到的三个命令，其余方法调用会 panic
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	data map[string]string
	down bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

var errRedisDown = errors.New("connection refused")

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewStringCmd(ctx, "get", key)
	if f.down {
		cmd.SetErr(errRedisDown)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if f.down {
		cmd.SetErr(errRedisDown)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewIntCmd(ctx, "del")
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

type countingSource struct {
	bank      []domain.ChecklistItemTemplate
	rules     *domain.RotationRules
	bankCalls int
	ruleCalls int
}

func (c *countingSource) ListQuestionTemplates(ctx context.Context, vehicleID int64) ([]domain.ChecklistItemTemplate, error) {
	c.bankCalls++
	return c.bank, nil
}

func (c *countingSource) GetRotationRules(ctx context.Context, vehicleID int64) (*domain.RotationRules, error) {
	c.ruleCalls++
	if c.rules == nil {
		return nil, sql.ErrNoRows
	}
	cp := *c.rules
	return &cp, nil
}

func newTestStore(rdb *fakeRedis, src Source) *Store {
	return New(rdb, src, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleSource() *countingSource {
	return &countingSource{
		bank: []domain.ChecklistItemTemplate{
			{ID: 1, VehicleID: 7, Question: "刹车是否灵敏", Category: "brakes", IsCritical: true, ExpectedAnswer: domain.AnswerPass},
			{ID: 2, VehicleID: 7, Question: "轮胎是否漏气", Category: "tires", ExpectedAnswer: domain.AnswerFail},
		},
		rules: &domain.RotationRules{
			VehicleID:               7,
			CriticalQuestionMinimum: 1,
			RequiredCategories:      []string{"tires"},
			MaxQuestionsPerCheck:    2,
			StandardQuestionMaximum: 1,
		},
	}
}

// ── 用例 ──

func TestListQuestionTemplates_ReadThrough(t *testing.T) {
	src := sampleSource()
	store := newTestStore(newFakeRedis(), src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		bank, err := store.ListQuestionTemplates(ctx, 7)
		if err != nil {
			t.Fatalf("ListQuestionTemplates 失败: %v", err)
		}
		if len(bank) != 2 || bank[1].ExpectedAnswer != domain.AnswerFail {
			t.Fatalf("题库内容错误: %+v", bank)
		}
	}

	if src.bankCalls != 1 {
		t.Errorf("期望只读取 1 次数据源, 实际 %d", src.bankCalls)
	}
}

func TestGetRotationRules_ReadThrough(t *testing.T) {
	src := sampleSource()
	store := newTestStore(newFakeRedis(), src)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rules, err := store.GetRotationRules(ctx, 7)
		if err != nil {
			t.Fatalf("GetRotationRules 失败: %v", err)
		}
		if rules.CriticalQuestionMinimum != 1 || len(rules.RequiredCategories) != 1 {
			t.Fatalf("规则内容错误: %+v", rules)
		}
	}

	if src.ruleCalls != 1 {
		t.Errorf("期望只读取 1 次数据源, 实际 %d", src.ruleCalls)
	}
}

func TestGetRotationRules_CachesMissing(t *testing.T) {
	src := &countingSource{}
	store := newTestStore(newFakeRedis(), src)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := store.GetRotationRules(ctx, 7); !errors.Is(err, sql.ErrNoRows) {
			t.Fatalf("期望 sql.ErrNoRows, 实际 %v", err)
		}
	}

	if src.ruleCalls != 1 {
		t.Errorf("没有规则时也应缓存, 实际读取数据源 %d 次", src.ruleCalls)
	}
}

func TestInvalidate(t *testing.T) {
	src := sampleSource()
	store := newTestStore(newFakeRedis(), src)
	ctx := context.Background()

	if _, err := store.ListQuestionTemplates(ctx, 7); err != nil {
		t.Fatalf("ListQuestionTemplates 失败: %v", err)
	}
	if _, err := store.GetRotationRules(ctx, 7); err != nil {
		t.Fatalf("GetRotationRules 失败: %v", err)
	}

	store.Invalidate(ctx, 7)

	if _, err := store.ListQuestionTemplates(ctx, 7); err != nil {
		t.Fatalf("ListQuestionTemplates 失败: %v", err)
	}
	if _, err := store.GetRotationRules(ctx, 7); err != nil {
		t.Fatalf("GetRotationRules 失败: %v", err)
	}

	if src.bankCalls != 2 || src.ruleCalls != 2 {
		t.Errorf("清除缓存后应重新读取数据源, bank=%d rules=%d", src.bankCalls, src.ruleCalls)
	}
}

func TestRedisDownFallsBackToSource(t *testing.T) {
	rdb := newFakeRedis()
	rdb.down = true
	src := sampleSource()
	store := newTestStore(rdb, src)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		bank, err := store.ListQuestionTemplates(ctx, 7)
		if err != nil {
			t.Fatalf("redis 不可用时不应报错: %v", err)
		}
		if len(bank) != 2 {
			t.Fatalf("题库内容错误: %+v", bank)
		}
	}

	if src.bankCalls != 2 {
		t.Errorf("redis 不可用时每次都应读取数据源, 实际 %d", src.bankCalls)
	}
}
