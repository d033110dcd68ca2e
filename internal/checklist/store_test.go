package checklist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/rotation"
)

// ── 测试辅助 ──

// memStore 同时实现题库、规则、检查单和作业会话四个接口，语义与数据库实现一致
type memStore struct {
	mu sync.Mutex

	nextID   int64
	checks   map[int64]*domain.PreShiftCheck
	bank     map[int64][]domain.ChecklistItemTemplate
	rules    map[int64]*domain.RotationRules
	sessions []*domain.OperatingSession

	createCalls int
	listCalls   int
	updateCalls int

	updateErr  error
	sessionErr error
	// 接下来这么多次 UpdateCheck 会写入成功，但返回错误
	commitThenFail int
}

func newMemStore() *memStore {
	return &memStore{
		checks: make(map[int64]*domain.PreShiftCheck),
		bank:   make(map[int64][]domain.ChecklistItemTemplate),
		rules:  make(map[int64]*domain.RotationRules),
	}
}

func (m *memStore) ListQuestionTemplates(ctx context.Context, vehicleID int64) ([]domain.ChecklistItemTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	return append([]domain.ChecklistItemTemplate(nil), m.bank[vehicleID]...), nil
}

func (m *memStore) GetRotationRules(ctx context.Context, vehicleID int64) (*domain.RotationRules, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rules, exists := m.rules[vehicleID]
	if !exists {
		return nil, sql.ErrNoRows
	}
	cp := *rules
	return &cp, nil
}

func (m *memStore) FindInProgressCheck(ctx context.Context, vehicleID int64) (*domain.PreShiftCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, check := range m.checks {
		if check.VehicleID == vehicleID && check.Status == domain.CheckStatusInProgress {
			return check.Clone(), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) GetCheckByID(ctx context.Context, id int64) (*domain.PreShiftCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	check, exists := m.checks[id]
	if !exists {
		return nil, sql.ErrNoRows
	}
	return check.Clone(), nil
}

func (m *memStore) CreateCheck(ctx context.Context, check *domain.PreShiftCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	for _, existing := range m.checks {
		if existing.VehicleID == check.VehicleID && existing.Status == domain.CheckStatusInProgress {
			return fmt.Errorf("车辆 %d 已有进行中的检查单", check.VehicleID)
		}
	}

	m.nextID++
	check.ID = m.nextID
	check.Version = 1
	m.checks[check.ID] = check.Clone()
	return nil
}

func (m *memStore) UpdateCheck(ctx context.Context, check *domain.PreShiftCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}

	stored, exists := m.checks[check.ID]
	if !exists || stored.Version != check.Version {
		return sql.ErrNoRows
	}

	committed := check.Clone()
	committed.Version++
	m.checks[check.ID] = committed

	if m.commitThenFail > 0 {
		m.commitThenFail--
		return errCommitUnknown
	}

	check.Version = committed.Version
	return nil
}

func (m *memStore) StartOperatingSession(ctx context.Context, vehicleID int64, operatorID int64, checkID int64) (*domain.OperatingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessionErr != nil {
		return nil, m.sessionErr
	}

	sess := &domain.OperatingSession{
		ID:         int64(len(m.sessions) + 1),
		VehicleID:  vehicleID,
		OperatorID: operatorID,
		CheckID:    checkID,
		StartedAt:  time.Now(),
	}
	m.sessions = append(m.sessions, sess)
	return sess, nil
}

func (m *memStore) stored(id int64) *domain.PreShiftCheck {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.checks[id].Clone()
}

func (m *memStore) setUpdateErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateErr = err
}

func (m *memStore) setCommitThenFail(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commitThenFail = n
}

func (m *memStore) setSessionErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionErr = err
}

func (m *memStore) counts() (create int, list int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.createCalls, m.listCalls
}

func (m *memStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

var (
	errStoreDown     = errors.New("数据库不可用")
	errCommitUnknown = errors.New("commit: context deadline exceeded")
)

const testVehicle int64 = 1

// fiveItemBank 1 道关键题 + 4 道普通题，其中第 3 题期望答案为 FAIL
func fiveItemBank() []domain.ChecklistItemTemplate {
	bank := make([]domain.ChecklistItemTemplate, 5)
	for i := range bank {
		bank[i] = domain.ChecklistItemTemplate{
			ID:             int64(i + 1),
			VehicleID:      testVehicle,
			Question:       fmt.Sprintf("题目 %d", i+1),
			Category:       "brakes",
			IsCritical:     i == 0,
			ExpectedAnswer: domain.AnswerPass,
		}
	}
	bank[2].ExpectedAnswer = domain.AnswerFail
	return bank
}

// 这组规则会把五道题全部抽中
func fiveItemRules() *domain.RotationRules {
	return &domain.RotationRules{
		VehicleID:               testVehicle,
		CriticalQuestionMinimum: 1,
		MaxQuestionsPerCheck:    5,
		StandardQuestionMaximum: 4,
	}
}

func newTestEngine(store *memStore) (*Session, *Gate) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := NewSession(store, store, store, rotation.New(rand.New(rand.NewSource(1))), Options{
		DefaultRules: domain.RotationRules{
			CriticalQuestionMinimum: 1,
			MaxQuestionsPerCheck:    3,
			StandardQuestionMaximum: 2,
		},
		PersistTimeout: time.Second,
	}, logger)
	return session, NewGate(session, store, logger)
}

func newFiveItemStore() *memStore {
	store := newMemStore()
	store.bank[testVehicle] = fiveItemBank()
	store.rules[testVehicle] = fiveItemRules()
	return store
}
