package utils

import (
	"testing"
	"unicode/utf8"
)

func TestGenerateRandomRotationRulesAreValid(t *testing.T) {
	for i := 0; i < 200; i++ {
		rules := GenerateRandomRotationRules(int64(i))
		if err := ValidateRotationRules(rules); err != nil {
			t.Fatalf("第 %d 次生成的规则不合法: %v (%+v)", i, err, rules)
		}
	}
}

func TestGenerateRandomQuestionBankIsValid(t *testing.T) {
	bank := GenerateRandomQuestionBank(9)
	if len(bank) == 0 {
		t.Fatal("题库不应为空")
	}
	if err := ValidateQuestionBank(bank); err != nil {
		t.Fatalf("生成的题库不合法: %v", err)
	}
	for _, item := range bank {
		if item.VehicleID != 9 {
			t.Fatalf("题目车辆 ID 错误: %d", item.VehicleID)
		}
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	if got := utf8.RuneCountInString(GenerateRandomPassword(16)); got != 16 {
		t.Fatalf("期望长度 16, 实际 %d", got)
	}
}

func TestGenerateRandomVehicle(t *testing.T) {
	v := GenerateRandomVehicle()
	if v.Name == "" || utf8.RuneCountInString(v.PlateNumber) != 7 {
		t.Fatalf("生成的车辆不合法: %+v", v)
	}
}
