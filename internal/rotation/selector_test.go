package rotation

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// ── 测试辅助 ──

func newTestSelector(seed int64) *Selector {
	return New(rand.New(rand.NewSource(seed)))
}

func template(id int64, category string, critical bool) domain.ChecklistItemTemplate {
	return domain.ChecklistItemTemplate{
		ID:             id,
		VehicleID:      1,
		Question:       fmt.Sprintf("题目 %d", id),
		Category:       category,
		IsCritical:     critical,
		ExpectedAnswer: domain.AnswerPass,
	}
}

// sampleBank 3 道关键题（类别 C）+ A/B/C 三类共 7 道普通题
func sampleBank() []domain.ChecklistItemTemplate {
	return []domain.ChecklistItemTemplate{
		template(1, "C", true),
		template(2, "C", true),
		template(3, "C", true),
		template(4, "A", false),
		template(5, "A", false),
		template(6, "B", false),
		template(7, "B", false),
		template(8, "C", false),
		template(9, "C", false),
		template(10, "C", false),
	}
}

// randomBank 随机生成题库，类别从 cats 中选
func randomBank(rng *rand.Rand, n int, cats []string) []domain.ChecklistItemTemplate {
	bank := make([]domain.ChecklistItemTemplate, n)
	for i := range bank {
		bank[i] = template(int64(i+1), cats[rng.Intn(len(cats))], rng.Intn(3) == 0)
	}
	return bank
}

func countCritical(items []domain.ChecklistItem) int {
	cnt := 0
	for _, item := range items {
		if item.IsCritical {
			cnt++
		}
	}
	return cnt
}

// ── 场景测试 ──

func TestSelect_Scenario(t *testing.T) {
	rules := domain.RotationRules{
		CriticalQuestionMinimum: 2,
		RequiredCategories:      []string{"A", "B"},
		MaxQuestionsPerCheck:    6,
		StandardQuestionMaximum: 3,
	}

	for seed := int64(0); seed < 50; seed++ {
		items := newTestSelector(seed).Select(sampleBank(), rules)

		if len(items) != 6 {
			t.Fatalf("seed %d: 期望 6 道题, 实际 %d", seed, len(items))
		}
		if got := countCritical(items); got != 2 {
			t.Errorf("seed %d: 期望 2 道关键题, 实际 %d", seed, got)
		}

		categories := map[string]int{}
		ids := map[int64]bool{}
		for _, item := range items {
			categories[item.Category]++
			if ids[item.ID] {
				t.Errorf("seed %d: 题目 %d 重复", seed, item.ID)
			}
			ids[item.ID] = true
			if item.UserAnswer != domain.AnswerUnset {
				t.Errorf("seed %d: 题目 %d 不应带有答案", seed, item.ID)
			}
		}
		if categories["A"] < 1 || categories["B"] < 1 {
			t.Errorf("seed %d: 必选类别未覆盖: %v", seed, categories)
		}
	}
}

func TestSelect_EmptyBank(t *testing.T) {
	items := newTestSelector(1).Select(nil, domain.RotationRules{
		CriticalQuestionMinimum: 1,
		MaxQuestionsPerCheck:    5,
		StandardQuestionMaximum: 5,
	})
	if items == nil || len(items) != 0 {
		t.Fatalf("空题库应返回空切片, 实际 %v", items)
	}
}

func TestSelect_MissingCategorySkipped(t *testing.T) {
	rules := domain.RotationRules{
		RequiredCategories:      []string{"A", "不存在的类别"},
		MaxQuestionsPerCheck:    2,
		StandardQuestionMaximum: 0,
	}

	items := newTestSelector(7).Select(sampleBank(), rules)
	if len(items) != 1 || items[0].Category != "A" {
		t.Fatalf("期望只选出 1 道 A 类题, 实际 %+v", items)
	}
}

func TestSelect_BankSmallerThanQuota(t *testing.T) {
	bank := []domain.ChecklistItemTemplate{
		template(1, "A", true),
		template(2, "B", false),
	}
	rules := domain.RotationRules{
		CriticalQuestionMinimum: 5,
		MaxQuestionsPerCheck:    10,
		StandardQuestionMaximum: 10,
	}

	items := newTestSelector(3).Select(bank, rules)
	if len(items) != 2 {
		t.Fatalf("题库不足时应全部选中, 实际 %d 道", len(items))
	}
}

func TestSelect_DuplicateIDsInBank(t *testing.T) {
	bank := []domain.ChecklistItemTemplate{
		template(1, "A", false),
		template(1, "A", false),
		template(2, "A", false),
	}
	rules := domain.RotationRules{
		RequiredCategories:      []string{"A"},
		MaxQuestionsPerCheck:    5,
		StandardQuestionMaximum: 5,
	}

	items := newTestSelector(11).Select(bank, rules)
	if len(items) != 2 {
		t.Fatalf("重复的题目应只出现一次, 实际 %d 道", len(items))
	}
}

func TestSelect_SameSeedSameResult(t *testing.T) {
	rules := domain.RotationRules{
		CriticalQuestionMinimum: 1,
		RequiredCategories:      []string{"B"},
		MaxQuestionsPerCheck:    5,
		StandardQuestionMaximum: 4,
	}

	a := newTestSelector(42).Select(sampleBank(), rules)
	b := newTestSelector(42).Select(sampleBank(), rules)
	if len(a) != len(b) {
		t.Fatalf("长度不一致: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("相同种子第 %d 道题不同: %d vs %d", i, a[i].ID, b[i].ID)
		}
	}
}

// 规则本身超出上限时不做裁剪，由规则校验负责报告
func TestSelect_RulesExceedingMaxAreNotClipped(t *testing.T) {
	rules := domain.RotationRules{
		CriticalQuestionMinimum: 3,
		RequiredCategories:      []string{"A", "B"},
		MaxQuestionsPerCheck:    4,
		StandardQuestionMaximum: 4,
	}

	items := newTestSelector(5).Select(sampleBank(), rules)
	if len(items) != 5 {
		t.Fatalf("期望 5 道题（3 关键 + A + B）, 实际 %d", len(items))
	}
}

// ── 性质测试 ──

func TestSelect_Properties(t *testing.T) {
	cats := []string{"brakes", "tires", "lights", "fluids", "cab"}
	gen := rand.New(rand.NewSource(2025))

	for round := 0; round < 300; round++ {
		bank := randomBank(gen, gen.Intn(30)+1, cats)

		maxQ := gen.Intn(12) + 1
		critMin := gen.Intn(maxQ + 1)
		required := []string{}
		for _, c := range cats {
			if len(required)+critMin < maxQ && gen.Intn(2) == 0 {
				required = append(required, c)
			}
		}
		rules := domain.RotationRules{
			CriticalQuestionMinimum: critMin,
			RequiredCategories:      required,
			MaxQuestionsPerCheck:    maxQ,
			StandardQuestionMaximum: gen.Intn(maxQ + 1),
		}

		items := newTestSelector(int64(round)).Select(bank, rules)

		// 数量上限
		if len(items) > rules.MaxQuestionsPerCheck {
			t.Fatalf("round %d: 选出 %d 道, 超过上限 %d", round, len(items), rules.MaxQuestionsPerCheck)
		}

		// 无重复
		ids := map[int64]bool{}
		for _, item := range items {
			if ids[item.ID] {
				t.Fatalf("round %d: 题目 %d 重复", round, item.ID)
			}
			ids[item.ID] = true
		}

		// 关键题配额
		bankCritical := 0
		bankCategories := map[string]bool{}
		for _, tpl := range bank {
			if tpl.IsCritical {
				bankCritical++
			}
			bankCategories[tpl.Category] = true
		}
		if bankCritical >= rules.CriticalQuestionMinimum && countCritical(items) < rules.CriticalQuestionMinimum {
			t.Fatalf("round %d: 关键题 %d 道, 少于 %d", round, countCritical(items), rules.CriticalQuestionMinimum)
		}

		// 类别覆盖
		got := map[string]bool{}
		for _, item := range items {
			got[item.Category] = true
		}
		for _, c := range rules.RequiredCategories {
			if bankCategories[c] && !got[c] {
				t.Fatalf("round %d: 类别 %s 未覆盖", round, c)
			}
		}
	}
}
