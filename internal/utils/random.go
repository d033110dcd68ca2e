package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomUser 生成随机用户，大约十分之一是管理员
func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := domain.RoleOperator
	if rand.Intn(10) == 0 {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         role,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var plateLetters = []rune("ABCDEFGHJKLMNPQRSTUVWXYZ")

var vehicleKinds = []string{"叉车", "牵引车", "堆高车", "电动搬运车", "轮式装载机"}

func GenerateRandomVehicle() *domain.Vehicle {
	plate := []rune("粤")
	plate = append(plate, plateLetters[rand.Intn(len(plateLetters))])
	for i := 0; i < 5; i++ {
		plate = append(plate, rune(digits[rand.Intn(len(digits))]))
	}

	return &domain.Vehicle{
		Name:        fmt.Sprintf("%s-%03d", vehicleKinds[rand.Intn(len(vehicleKinds))], rand.Intn(1000)),
		PlateNumber: string(plate),
	}
}

// 每个类别下的示例题目，第二个值为期望答案是否为 PASS
var sampleQuestions = map[string][]struct {
	question string
	pass     bool
}{
	"brakes": {
		{"行车制动是否灵敏有效", true},
		{"驻车制动能否可靠停住车辆", true},
		{"制动液是否有渗漏", false},
	},
	"tires": {
		{"轮胎气压是否正常", true},
		{"轮胎是否有割伤或鼓包", false},
		{"轮毂螺母是否紧固", true},
	},
	"lights": {
		{"前照灯是否正常", true},
		{"倒车警示灯与蜂鸣器是否工作", true},
		{"转向灯是否正常", true},
	},
	"fluids": {
		{"机油液位是否在刻度范围内", true},
		{"液压油是否有渗漏", false},
		{"冷却液液位是否正常", true},
	},
	"cab": {
		{"安全带是否完好", true},
		{"喇叭是否正常", true},
		{"灭火器是否在有效期内", true},
		{"后视镜是否完好", true},
	},
}

// criticalCategories 中的题目会被标记为关键题
var criticalCategories = map[string]bool{"brakes": true, "tires": true}

func GenerateRandomQuestionBank(vehicleID int64) []domain.ChecklistItemTemplate {
	bank := make([]domain.ChecklistItemTemplate, 0)

	for category, questions := range sampleQuestions {
		for _, q := range questions {
			expected := domain.AnswerFail
			if q.pass {
				expected = domain.AnswerPass
			}

			bank = append(bank, domain.ChecklistItemTemplate{
				VehicleID:      vehicleID,
				Question:       q.question,
				Category:       category,
				IsCritical:     criticalCategories[category] && rand.Intn(3) > 0,
				ExpectedAnswer: expected,
				RotationGroup:  int32(rand.Intn(3)),
			})
		}
	}

	rand.Shuffle(len(bank), func(i, j int) {
		bank[i], bank[j] = bank[j], bank[i]
	})

	return bank
}

// GenerateRandomRotationRules 生成一定能通过 ValidateRotationRules 的规则
func GenerateRandomRotationRules(vehicleID int64) *domain.RotationRules {
	categories := make([]string, 0, len(sampleQuestions))
	for category := range sampleQuestions {
		if rand.Intn(2) == 0 {
			categories = append(categories, category)
		}
	}

	maxQuestions := rand.Intn(6) + len(categories) + 3

	return &domain.RotationRules{
		VehicleID:               vehicleID,
		CriticalQuestionMinimum: rand.Intn(3) + 1,
		RequiredCategories:      categories,
		MaxQuestionsPerCheck:    maxQuestions,
		StandardQuestionMaximum: rand.Intn(maxQuestions) + 1,
	}
}
