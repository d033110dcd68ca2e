package utils

import (
	"errors"
	"testing"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

func TestValidateRotationRules(t *testing.T) {
	tests := []struct {
		name    string
		rules   domain.RotationRules
		wantErr bool
	}{
		{
			name: "合法规则",
			rules: domain.RotationRules{
				CriticalQuestionMinimum: 2,
				RequiredCategories:      []string{"A", "B"},
				MaxQuestionsPerCheck:    6,
				StandardQuestionMaximum: 3,
			},
		},
		{
			name: "恰好等于上限",
			rules: domain.RotationRules{
				CriticalQuestionMinimum: 4,
				RequiredCategories:      []string{"A", "B"},
				MaxQuestionsPerCheck:    6,
			},
		},
		{
			name:    "关键题为负数",
			rules:   domain.RotationRules{CriticalQuestionMinimum: -1, MaxQuestionsPerCheck: 5},
			wantErr: true,
		},
		{
			name:    "上限为 0",
			rules:   domain.RotationRules{MaxQuestionsPerCheck: 0},
			wantErr: true,
		},
		{
			name:    "普通题上限为负数",
			rules:   domain.RotationRules{MaxQuestionsPerCheck: 5, StandardQuestionMaximum: -2},
			wantErr: true,
		},
		{
			name:    "类别重复",
			rules:   domain.RotationRules{MaxQuestionsPerCheck: 5, RequiredCategories: []string{"A", "A"}},
			wantErr: true,
		},
		{
			name:    "类别为空",
			rules:   domain.RotationRules{MaxQuestionsPerCheck: 5, RequiredCategories: []string{" "}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRotationRules(&tt.rules)
			if (err != nil) != tt.wantErr {
				t.Fatalf("期望 wantErr=%v, 实际 err=%v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateRotationRules_ExceedMax(t *testing.T) {
	rules := domain.RotationRules{
		CriticalQuestionMinimum: 3,
		RequiredCategories:      []string{"A", "B"},
		MaxQuestionsPerCheck:    4,
	}

	err := ValidateRotationRules(&rules)
	if !errors.Is(err, ErrRulesExceedMax) {
		t.Fatalf("期望 ErrRulesExceedMax, 实际 %v", err)
	}
}

func TestValidateQuestionBank(t *testing.T) {
	bank := []domain.ChecklistItemTemplate{
		{Question: "刹车是否正常", Category: "brakes", ExpectedAnswer: domain.AnswerPass},
		{Question: "轮胎是否有破损", Category: "tires", ExpectedAnswer: domain.AnswerFail},
	}
	if err := ValidateQuestionBank(bank); err != nil {
		t.Fatalf("不应报错: %v", err)
	}

	bank = append(bank, domain.ChecklistItemTemplate{Question: "刹车是否正常 ", Category: "brakes", ExpectedAnswer: domain.AnswerPass})
	if err := ValidateQuestionBank(bank); err == nil {
		t.Fatal("重复题目应报错")
	}

	bad := []domain.ChecklistItemTemplate{{Question: "灯光", Category: "lights", ExpectedAnswer: "MAYBE"}}
	if err := ValidateQuestionBank(bad); err == nil {
		t.Fatal("非法期望答案应报错")
	}
}
