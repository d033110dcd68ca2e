package checklist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/rotation"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/utils"
)

type Options struct {
	// 车辆没有配置轮换规则时使用
	DefaultRules domain.RotationRules
	// 每次异步落盘的超时时间
	PersistTimeout time.Duration
}

// Session 管理进行中的检查单：开始或恢复检查、记录作答
// 作答先写内存再异步落盘，落盘失败不会回滚内存中的作答
type Session struct {
	store    CheckStore
	bank     QuestionBank
	rules    RulesProvider
	selector *rotation.Selector
	options  Options
	logger   *slog.Logger
	now      func() time.Time

	vehicleLocks *keyedMutex
	checkLocks   *keyedMutex

	mu         sync.Mutex
	entries    map[int64]*entry // checkID -> 进行中的检查单
	inProgress map[int64]int64  // vehicleID -> checkID
}

// entry 是一份进行中检查单的内存状态
// 加锁顺序：checkLocks -> persistMu -> mu -> Session.mu
type entry struct {
	persistMu    sync.Mutex
	version      int32  // 最近一次成功落盘后的版本号
	persistedSeq uint64 // 最近一次成功落盘的修改序号

	mu    sync.Mutex
	check *domain.PreShiftCheck
	seq   uint64
}

func (e *entry) snapshot() *domain.PreShiftCheck {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.check.Clone()
}

func NewSession(store CheckStore, bank QuestionBank, rules RulesProvider, selector *rotation.Selector, options Options, logger *slog.Logger) *Session {
	if options.PersistTimeout <= 0 {
		options.PersistTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		store:        store,
		bank:         bank,
		rules:        rules,
		selector:     selector,
		options:      options,
		logger:       logger,
		now:          time.Now,
		vehicleLocks: newKeyedMutex(),
		checkLocks:   newKeyedMutex(),
		entries:      make(map[int64]*entry),
		inProgress:   make(map[int64]int64),
	}
}

// StartOrResume 如果车辆已有进行中的检查单则原样返回，否则抽题并创建新的检查单
func (s *Session) StartOrResume(ctx context.Context, vehicleID int64, operatorID int64) (*domain.PreShiftCheck, error) {
	unlock := s.vehicleLocks.Lock(vehicleID)
	defer unlock()

	// 内存中的作答可能比数据库新，优先使用
	if checkID, ok := s.lookupInProgress(vehicleID); ok {
		check, err := s.Get(ctx, checkID)
		if err == nil && check.Status == domain.CheckStatusInProgress {
			return check, nil
		}
	}

	existing, err := s.store.FindInProgressCheck(ctx, vehicleID)
	switch {
	case err == nil:
		check, err := s.Get(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		if check.Status == domain.CheckStatusInProgress {
			s.logger.Info("恢复未完成的检查单", "checkID", check.ID, "vehicleID", vehicleID)
			return check, nil
		}
		// 读取期间刚好被提交了，按没有进行中的检查单处理
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, err
	}

	return s.create(ctx, vehicleID, operatorID)
}

func (s *Session) create(ctx context.Context, vehicleID int64, operatorID int64) (*domain.PreShiftCheck, error) {
	bank, err := s.bank.ListQuestionTemplates(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	rules, err := s.rulesFor(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateRotationRules(rules); err != nil {
		// 规则问题只报告，不替调用方修正
		s.logger.Warn("轮换规则不合理", "vehicleID", vehicleID, "error", err)
	}

	items := s.selector.Select(bank, *rules)
	if len(items) == 0 {
		return nil, domain.ErrNoChecklistAvailable
	}

	now := s.now()
	check := &domain.PreShiftCheck{
		VehicleID:   vehicleID,
		OperatorID:  operatorID,
		Items:       items,
		Status:      domain.CheckStatusInProgress,
		CreatedAt:   now,
		LastSavedAt: now,
	}
	if err := s.store.CreateCheck(ctx, check); err != nil {
		return nil, err
	}

	s.track(check)
	s.logger.Info("已创建检查单", "checkID", check.ID, "vehicleID", vehicleID, "operatorID", operatorID, "items", len(items))

	return check.Clone(), nil
}

func (s *Session) rulesFor(ctx context.Context, vehicleID int64) (*domain.RotationRules, error) {
	rules, err := s.rules.GetRotationRules(ctx, vehicleID)
	switch {
	case err == nil:
		return rules, nil
	case errors.Is(err, sql.ErrNoRows):
		defaults := s.options.DefaultRules
		defaults.VehicleID = vehicleID
		defaults.RequiredCategories = slices.Clone(defaults.RequiredCategories)
		return &defaults, nil
	default:
		return nil, err
	}
}

// Get 返回检查单的最新状态（进行中的检查单以内存为准）
func (s *Session) Get(ctx context.Context, checkID int64) (*domain.PreShiftCheck, error) {
	unlock := s.checkLocks.Lock(checkID)
	defer unlock()

	e, err := s.loadEntry(ctx, checkID)
	if err != nil {
		return nil, err
	}

	return e.snapshot(), nil
}

// RecordAnswer 记录作答。返回的 channel 一定会收到一个值：nil 表示已落盘，
// 否则为包装了 domain.ErrSyncPending 的错误，调用方可以选择忽略
func (s *Session) RecordAnswer(ctx context.Context, checkID int64, itemID int64, answer domain.Answer) (*domain.PreShiftCheck, <-chan error, error) {
	if !answer.IsValid() {
		return nil, nil, domain.ErrInvalidAnswer
	}
	return s.setAnswer(ctx, checkID, itemID, answer)
}

func (s *Session) ClearAnswer(ctx context.Context, checkID int64, itemID int64) (*domain.PreShiftCheck, <-chan error, error) {
	return s.setAnswer(ctx, checkID, itemID, domain.AnswerUnset)
}

func (s *Session) setAnswer(ctx context.Context, checkID int64, itemID int64, answer domain.Answer) (*domain.PreShiftCheck, <-chan error, error) {
	unlock := s.checkLocks.Lock(checkID)
	defer unlock()

	e, err := s.loadEntry(ctx, checkID)
	if err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	if e.check.Status != domain.CheckStatusInProgress {
		e.mu.Unlock()
		return nil, nil, domain.ErrReadOnlyViolation
	}

	idx := e.check.ItemIndex(itemID)
	if idx < 0 {
		e.mu.Unlock()
		return nil, nil, domain.ErrItemNotFound
	}

	e.check.Items[idx].UserAnswer = answer
	e.seq++
	seq := e.seq
	snapshot := e.check.Clone()
	pending := e.check.Clone()
	e.mu.Unlock()

	done := make(chan error, 1)
	go s.persist(e, pending, seq, done)

	return snapshot, done, nil
}

func (s *Session) persist(e *entry, check *domain.PreShiftCheck, seq uint64, done chan<- error) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	// 更新的状态已经落盘，这份快照已经过期
	if seq <= e.persistedSeq {
		done <- nil
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.options.PersistTimeout)
	defer cancel()

	check.Version = e.version
	check.LastSavedAt = s.now()
	if err := s.update(ctx, check); err != nil {
		s.logger.Warn("检查单同步失败，已保留本地作答", "checkID", check.ID, "error", err)
		done <- fmt.Errorf("%w: %w", domain.ErrSyncPending, err)
		return
	}

	e.version = check.Version
	e.persistedSeq = seq

	e.mu.Lock()
	e.check.LastSavedAt = check.LastSavedAt
	e.mu.Unlock()

	done <- nil
}

// finalize 校验并提交检查单，成功后检查单变为只读
func (s *Session) finalize(ctx context.Context, checkID int64) (*domain.PreShiftCheck, domain.ValidationResult, error) {
	unlock := s.checkLocks.Lock(checkID)
	defer unlock()

	e, err := s.loadEntry(ctx, checkID)
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}

	// 等正在进行的同步结束，之后排队的旧快照会因为序号过期被跳过
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.check.Status != domain.CheckStatusInProgress {
		return nil, domain.ValidationResult{}, domain.ErrAlreadyFinalized
	}

	result := Validate(e.check.Items)
	if !result.IsComplete {
		return nil, result, domain.ErrIncompleteChecklist
	}

	final := e.check.Clone()
	final.Status = result.Status
	final.Version = e.version
	final.LastSavedAt = s.now()
	if err := s.update(ctx, final); err != nil {
		return nil, result, err
	}

	e.seq++
	e.persistedSeq = e.seq
	e.version = final.Version
	e.check = final

	s.untrack(final.VehicleID, final.ID)

	return final.Clone(), result, nil
}

// update 写入本引擎持有的检查单，调用方需持有 persistMu
// 上一次写入可能已经提交却返回了错误，此时缓存的版本号已过期：
// 版本冲突时重新读取版本号，再用内存中的快照重试一次
func (s *Session) update(ctx context.Context, check *domain.PreShiftCheck) error {
	err := s.store.UpdateCheck(ctx, check)
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	stored, getErr := s.store.GetCheckByID(ctx, check.ID)
	if getErr != nil {
		return err
	}

	switch stored.Status {
	case domain.CheckStatusInProgress:
		s.logger.Info("检查单版本号已过期，重新读取后重试", "checkID", check.ID, "cached", check.Version, "stored", stored.Version)
		check.Version = stored.Version
		return s.store.UpdateCheck(ctx, check)
	case check.Status:
		// 提交时遇到的情况：同样的结论已经写入，只是当时没有拿到结果
		check.Version = stored.Version
		check.LastSavedAt = stored.LastSavedAt
		return nil
	default:
		return err
	}
}

// loadEntry 调用方需持有 checkLocks 中对应的锁
func (s *Session) loadEntry(ctx context.Context, checkID int64) (*entry, error) {
	s.mu.Lock()
	e, exists := s.entries[checkID]
	s.mu.Unlock()
	if exists {
		return e, nil
	}

	check, err := s.store.GetCheckByID(ctx, checkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCheckNotFound
		}
		return nil, err
	}

	// 已提交的检查单只读，不需要缓存
	if check.Status != domain.CheckStatusInProgress {
		return &entry{check: check, version: check.Version}, nil
	}

	return s.track(check), nil
}

func (s *Session) track(check *domain.PreShiftCheck) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[check.ID]; exists {
		return e
	}

	e := &entry{
		check:   check.Clone(),
		version: check.Version,
	}
	s.entries[check.ID] = e
	s.inProgress[check.VehicleID] = check.ID

	return e
}

func (s *Session) untrack(vehicleID int64, checkID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, checkID)
	if s.inProgress[vehicleID] == checkID {
		delete(s.inProgress, vehicleID)
	}
}

func (s *Session) lookupInProgress(vehicleID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkID, ok := s.inProgress[vehicleID]
	return checkID, ok
}
