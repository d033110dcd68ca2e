package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/utils"
	"gopkg.in/yaml.v3"
)

// File 是题库导入文件的格式，见 data/question_bank.yaml
type File struct {
	Vehicles []VehicleBank `yaml:"vehicles"`
}

type VehicleBank struct {
	Name        string         `yaml:"name"`
	PlateNumber string         `yaml:"plateNumber"`
	Rules       *Rules         `yaml:"rules"`
	Questions   []QuestionSpec `yaml:"questions"`
}

type Rules struct {
	CriticalQuestionMinimum int      `yaml:"criticalQuestionMinimum"`
	RequiredCategories      []string `yaml:"requiredCategories"`
	MaxQuestionsPerCheck    int      `yaml:"maxQuestionsPerCheck"`
	StandardQuestionMaximum int      `yaml:"standardQuestionMaximum"`
}

type QuestionSpec struct {
	Question      string `yaml:"question"`
	Category      string `yaml:"category"`
	Critical      bool   `yaml:"critical"`
	Expected      string `yaml:"expected"`
	RotationGroup int32  `yaml:"rotationGroup"`
}

func (v *VehicleBank) templates() []domain.ChecklistItemTemplate {
	bank := make([]domain.ChecklistItemTemplate, 0, len(v.Questions))
	for _, q := range v.Questions {
		bank = append(bank, domain.ChecklistItemTemplate{
			Question:       q.Question,
			Category:       q.Category,
			IsCritical:     q.Critical,
			ExpectedAnswer: domain.Answer(q.Expected),
			RotationGroup:  q.RotationGroup,
		})
	}
	return bank
}

func (v *VehicleBank) rotationRules(vehicleID int64) *domain.RotationRules {
	if v.Rules == nil {
		return nil
	}
	categories := v.Rules.RequiredCategories
	if categories == nil {
		categories = make([]string, 0)
	}
	return &domain.RotationRules{
		VehicleID:               vehicleID,
		CriticalQuestionMinimum: v.Rules.CriticalQuestionMinimum,
		RequiredCategories:      categories,
		MaxQuestionsPerCheck:    v.Rules.MaxQuestionsPerCheck,
		StandardQuestionMaximum: v.Rules.StandardQuestionMaximum,
	}
}

// Parse 读取并校验导入文件，不认识的字段视为错误
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	f := &File{}
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("无法解析题库文件: %w", err)
	}

	plates := make(map[string]bool)
	for i := range f.Vehicles {
		v := &f.Vehicles[i]
		if v.PlateNumber == "" {
			return nil, fmt.Errorf("第 %d 辆车缺少车牌号", i+1)
		}
		if plates[v.PlateNumber] {
			return nil, fmt.Errorf("车牌号 %s 重复", v.PlateNumber)
		}
		plates[v.PlateNumber] = true

		if err := utils.ValidateQuestionBank(v.templates()); err != nil {
			return nil, fmt.Errorf("车辆 %s: %w", v.PlateNumber, err)
		}
		if rules := v.rotationRules(0); rules != nil {
			// 配额超出上限允许导入，只在 Apply 时提示
			if err := utils.ValidateRotationRules(rules); err != nil && !errors.Is(err, utils.ErrRulesExceedMax) {
				return nil, fmt.Errorf("车辆 %s: %w", v.PlateNumber, err)
			}
		}
	}

	return f, nil
}

type Store interface {
	GetVehicleByPlateNumber(ctx context.Context, plateNumber string) (*domain.Vehicle, error)
	CreateVehicle(ctx context.Context, v *domain.Vehicle) error
	ReplaceQuestionBank(ctx context.Context, vehicleID int64, templates []domain.ChecklistItemTemplate) error
	SaveRotationRules(ctx context.Context, rules *domain.RotationRules) error
}

type Summary struct {
	VehiclesCreated int
	Questions       int
	RulesSaved      int
}

// Apply 导入题库。车辆按车牌号匹配，不存在则创建；已有题库会被整体替换
func Apply(ctx context.Context, store Store, f *File, logger *slog.Logger) (Summary, error) {
	var summary Summary

	for i := range f.Vehicles {
		spec := &f.Vehicles[i]

		v, err := store.GetVehicleByPlateNumber(ctx, spec.PlateNumber)
		switch {
		case err == nil:
		case errors.Is(err, sql.ErrNoRows):
			v = &domain.Vehicle{Name: spec.Name, PlateNumber: spec.PlateNumber}
			if v.Name == "" {
				v.Name = spec.PlateNumber
			}
			if err := store.CreateVehicle(ctx, v); err != nil {
				return summary, fmt.Errorf("无法创建车辆 %s: %w", spec.PlateNumber, err)
			}
			summary.VehiclesCreated++
		default:
			return summary, err
		}

		bank := spec.templates()
		if err := store.ReplaceQuestionBank(ctx, v.ID, bank); err != nil {
			return summary, fmt.Errorf("无法导入车辆 %s 的题库: %w", spec.PlateNumber, err)
		}
		summary.Questions += len(bank)

		rules := spec.rotationRules(v.ID)
		if rules == nil {
			continue
		}
		if err := utils.ValidateRotationRules(rules); err != nil {
			logger.Warn("轮换规则不合理，仍然导入", "plateNumber", spec.PlateNumber, "error", err)
		}
		if err := store.SaveRotationRules(ctx, rules); err != nil {
			return summary, fmt.Errorf("无法导入车辆 %s 的轮换规则: %w", spec.PlateNumber, err)
		}
		summary.RulesSaved++
	}

	return summary, nil
}
