package rotation

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// Selector 按轮换规则从题库中抽取一次检查要用的题目
// 随机源由外部注入，测试时可以传入固定种子
type Selector struct {
	mu  sync.Mutex // *rand.Rand 不是并发安全的
	rng *rand.Rand
}

func New(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rng: rng}
}

/**
 * 抽题分四步：
 * 		1. 从关键题中随机抽取 min(CriticalQuestionMinimum, 关键题数量) 道
 * 		2. 对每个必选类别，若还有未被选中的该类题目，则随机补一道
 * 		3. 剩余名额（不超过 StandardQuestionMaximum）用未被选中的非关键题填充
 * 		4. 整体再打乱一次，避免题目顺序暴露它来自哪一步
 * 题库为空时返回空切片。规则本身不做校验，见 utils.ValidateRotationRules
 */
func (s *Selector) Select(bank []domain.ChecklistItemTemplate, rules domain.RotationRules) []domain.ChecklistItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := dedupByID(bank)
	selected := make([]domain.ChecklistItemTemplate, 0, max(rules.MaxQuestionsPerCheck, 0))
	chosen := make(map[int64]bool)

	pick := func(t domain.ChecklistItemTemplate) {
		selected = append(selected, t)
		chosen[t.ID] = true
	}

	// 关键题配额
	critical := filter(candidates, func(t domain.ChecklistItemTemplate) bool {
		return t.IsCritical
	})
	s.shuffle(critical)
	for _, t := range critical[:clamp(rules.CriticalQuestionMinimum, len(critical))] {
		pick(t)
	}

	// 必选类别覆盖，没有可用题目的类别直接跳过
	seenCategory := make(map[string]bool)
	for _, category := range rules.RequiredCategories {
		if seenCategory[category] {
			continue
		}
		seenCategory[category] = true

		pool := filter(candidates, func(t domain.ChecklistItemTemplate) bool {
			return t.Category == category && !chosen[t.ID]
		})
		if len(pool) == 0 {
			continue
		}
		pick(pool[s.rng.Intn(len(pool))])
	}

	// 普通题填充
	remaining := rules.MaxQuestionsPerCheck - len(selected)
	if remaining > 0 {
		standard := filter(candidates, func(t domain.ChecklistItemTemplate) bool {
			return !t.IsCritical && !chosen[t.ID]
		})
		s.shuffle(standard)
		n := clamp(min(remaining, rules.StandardQuestionMaximum), len(standard))
		for _, t := range standard[:n] {
			pick(t)
		}
	}

	s.shuffle(selected)

	items := make([]domain.ChecklistItem, len(selected))
	for i, t := range selected {
		items[i] = domain.NewChecklistItem(t)
	}

	return items
}

// 用 Fisher-Yates 洗牌算法原地打乱
func (s *Selector) shuffle(arr []domain.ChecklistItemTemplate) {
	s.rng.Shuffle(len(arr), func(i, j int) {
		arr[i], arr[j] = arr[j], arr[i]
	})
}
