package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// ErrRulesExceedMax 关键题配额加上必选类别数超过了单次题目上限
// 抽题时不会裁剪，只在这里报告
var ErrRulesExceedMax = errors.New("关键题最低数量与必选类别数之和超过了单次检查题目上限")

func ValidateRotationRules(rules *domain.RotationRules) error {
	if rules.CriticalQuestionMinimum < 0 {
		return errors.New("关键题最低数量不能为负数")
	}
	if rules.MaxQuestionsPerCheck <= 0 {
		return errors.New("单次检查题目上限必须大于 0")
	}
	if rules.StandardQuestionMaximum < 0 {
		return errors.New("普通题数量上限不能为负数")
	}

	seen := make(map[string]bool)
	for i, category := range rules.RequiredCategories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("第 %d 个必选类别为空", i+1)
		}
		if seen[category] {
			return fmt.Errorf("必选类别 %s 重复", category)
		}
		seen[category] = true
	}

	if rules.CriticalQuestionMinimum+len(rules.RequiredCategories) > rules.MaxQuestionsPerCheck {
		return fmt.Errorf("%w（%d + %d > %d）", ErrRulesExceedMax, rules.CriticalQuestionMinimum, len(rules.RequiredCategories), rules.MaxQuestionsPerCheck)
	}

	return nil
}

func ValidateQuestionTemplate(t *domain.ChecklistItemTemplate) error {
	if strings.TrimSpace(t.Question) == "" {
		return errors.New("题目内容不能为空")
	}
	if strings.TrimSpace(t.Category) == "" {
		return errors.New("题目类别不能为空")
	}
	if !t.ExpectedAnswer.IsValid() {
		return fmt.Errorf("期望答案只能是 %s 或 %s", domain.AnswerPass, domain.AnswerFail)
	}
	if t.RotationGroup < 0 {
		return errors.New("轮换分组不能为负数")
	}
	return nil
}

// ValidateQuestionBank 检查同一车辆题库中是否有重复题目
func ValidateQuestionBank(bank []domain.ChecklistItemTemplate) error {
	seen := make(map[string]int)
	for i := range bank {
		if err := ValidateQuestionTemplate(&bank[i]); err != nil {
			return fmt.Errorf("第 %d 题: %w", i+1, err)
		}

		key := bank[i].Category + "|" + strings.TrimSpace(bank[i].Question)
		if j, exists := seen[key]; exists {
			return fmt.Errorf("第 %d 题与第 %d 题重复", i+1, j+1)
		}
		seen[key] = i
	}
	return nil
}
