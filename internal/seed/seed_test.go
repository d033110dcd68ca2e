package seed

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

type fakeStore struct {
	vehicles map[string]*domain.Vehicle
	banks    map[int64][]domain.ChecklistItemTemplate
	rules    map[int64]*domain.RotationRules
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vehicles: make(map[string]*domain.Vehicle),
		banks:    make(map[int64][]domain.ChecklistItemTemplate),
		rules:    make(map[int64]*domain.RotationRules),
	}
}

func (f *fakeStore) GetVehicleByPlateNumber(ctx context.Context, plateNumber string) (*domain.Vehicle, error) {
	v, ok := f.vehicles[plateNumber]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

func (f *fakeStore) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	f.nextID++
	v.ID = f.nextID
	f.vehicles[v.PlateNumber] = v
	return nil
}

func (f *fakeStore) ReplaceQuestionBank(ctx context.Context, vehicleID int64, templates []domain.ChecklistItemTemplate) error {
	f.banks[vehicleID] = templates
	return nil
}

func (f *fakeStore) SaveRotationRules(ctx context.Context, rules *domain.RotationRules) error {
	f.rules[rules.VehicleID] = rules
	return nil
}

func TestParse_SampleFile(t *testing.T) {
	file, err := os.Open("data/question_bank.yaml")
	if err != nil {
		t.Fatalf("无法打开示例文件: %v", err)
	}
	defer file.Close()

	f, err := Parse(file)
	if err != nil {
		t.Fatalf("示例文件解析失败: %v", err)
	}

	if len(f.Vehicles) != 2 {
		t.Fatalf("期望 2 辆车, 实际 %d", len(f.Vehicles))
	}
	first := f.Vehicles[0]
	if first.Rules == nil || first.Rules.CriticalQuestionMinimum != 2 || len(first.Rules.RequiredCategories) != 3 {
		t.Errorf("第 1 辆车的规则解析错误: %+v", first.Rules)
	}
	if f.Vehicles[1].Rules != nil {
		t.Errorf("第 2 辆车没有配置规则")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "未知字段",
			doc:  "vehicles:\n  - plateNumber: A1\n    color: red\n",
			want: "无法解析题库文件",
		},
		{
			name: "缺少车牌号",
			doc:  "vehicles:\n  - name: 叉车\n",
			want: "缺少车牌号",
		},
		{
			name: "无效的期望答案",
			doc:  "vehicles:\n  - plateNumber: A1\n    questions:\n      - {question: 刹车, category: brakes, expected: MAYBE}\n",
			want: "期望答案",
		},
		{
			name: "重复题目",
			doc:  "vehicles:\n  - plateNumber: A1\n    questions:\n      - {question: 刹车, category: brakes, expected: PASS}\n      - {question: 刹车, category: brakes, expected: PASS}\n",
			want: "重复",
		},
		{
			name: "规则非法",
			doc:  "vehicles:\n  - plateNumber: A1\n    rules: {criticalQuestionMinimum: 1, maxQuestionsPerCheck: 0}\n",
			want: "题目上限",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("期望包含 %q 的错误, 实际 %v", tt.want, err)
			}
		})
	}
}

func TestParse_RulesExceedingMaxAllowed(t *testing.T) {
	doc := "vehicles:\n  - plateNumber: A1\n    rules: {criticalQuestionMinimum: 3, requiredCategories: [a, b], maxQuestionsPerCheck: 4}\n"
	if _, err := Parse(strings.NewReader(doc)); err != nil {
		t.Fatalf("配额超出上限时应允许导入: %v", err)
	}
}

func TestApply(t *testing.T) {
	file, err := os.Open("data/question_bank.yaml")
	if err != nil {
		t.Fatalf("无法打开示例文件: %v", err)
	}
	defer file.Close()

	f, err := Parse(file)
	if err != nil {
		t.Fatalf("示例文件解析失败: %v", err)
	}

	store := newFakeStore()
	// 第 1 辆车已经存在，不应重复创建
	existing := &domain.Vehicle{Name: "旧名字", PlateNumber: "粤A10001"}
	_ = store.CreateVehicle(context.Background(), existing)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	summary, err := Apply(context.Background(), store, f, logger)
	if err != nil {
		t.Fatalf("Apply 失败: %v", err)
	}

	if summary.VehiclesCreated != 1 {
		t.Errorf("期望新建 1 辆车, 实际 %d", summary.VehiclesCreated)
	}
	if summary.Questions != 18 {
		t.Errorf("期望导入 18 道题, 实际 %d", summary.Questions)
	}
	if summary.RulesSaved != 1 {
		t.Errorf("期望保存 1 份规则, 实际 %d", summary.RulesSaved)
	}
	if got := len(store.banks[existing.ID]); got != 13 {
		t.Errorf("已有车辆的题库应被替换为 13 道题, 实际 %d", got)
	}
	if rules := store.rules[existing.ID]; rules == nil || rules.VehicleID != existing.ID {
		t.Errorf("规则没有关联到已有车辆: %+v", rules)
	}
}
