package rotation

import "github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"

// 题库中同一 ID 出现多次时只保留第一次出现的题目
func dedupByID(bank []domain.ChecklistItemTemplate) []domain.ChecklistItemTemplate {
	seen := make(map[int64]bool, len(bank))
	res := make([]domain.ChecklistItemTemplate, 0, len(bank))
	for _, t := range bank {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		res = append(res, t)
	}
	return res
}

func filter(arr []domain.ChecklistItemTemplate, keep func(domain.ChecklistItemTemplate) bool) []domain.ChecklistItemTemplate {
	res := make([]domain.ChecklistItemTemplate, 0)
	for _, t := range arr {
		if keep(t) {
			res = append(res, t)
		}
	}
	return res
}

// clamp 把 n 限制在 [0, upper] 之间
func clamp(n int, upper int) int {
	return max(0, min(n, upper))
}
