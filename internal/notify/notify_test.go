package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
	deadline bool
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	_, hasDeadline := ctx.Deadline()
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg, deadline: hasDeadline})
	return nil
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, time.Second)
	user := &domain.User{Username: "zhangsan", FullName: "张三", Email: "zhangsan@example.com"}

	if err := p.Publish(context.Background(), NewUserMessage(user, "secret")); err != nil {
		t.Fatalf("Publish 失败: %v", err)
	}

	if len(ch.sent) != 1 {
		t.Fatalf("期望发布 1 条消息, 实际 %d", len(ch.sent))
	}
	got := ch.sent[0]
	if got.key != MailQueue || got.exchange != "" {
		t.Errorf("发布到了错误的队列: %q/%q", got.exchange, got.key)
	}
	if !got.deadline {
		t.Errorf("发布时应设置超时")
	}
	if got.msg.ContentType != "application/json" {
		t.Errorf("ContentType = %q", got.msg.ContentType)
	}

	var decoded struct {
		Type string                    `json:"type"`
		To   string                    `json:"to"`
		Data domain.CreateUserMailData `json:"data"`
	}
	if err := json.Unmarshal(got.msg.Body, &decoded); err != nil {
		t.Fatalf("消息体不是合法的 JSON: %v", err)
	}
	if decoded.Type != domain.MailTypeCreateUser || decoded.To != user.Email || decoded.Data.Password != "secret" {
		t.Errorf("消息内容错误: %+v", decoded)
	}
}

func TestPublish_Error(t *testing.T) {
	errClosed := errors.New("channel closed")
	p := NewPublisher(&fakeChannel{err: errClosed}, time.Second)

	err := p.Publish(context.Background(), &domain.MailMessage{Type: domain.MailTypeCreateUser})
	if !errors.Is(err, errClosed) {
		t.Fatalf("期望返回底层错误, 实际 %v", err)
	}
}

func TestVehicleBlockedMessages(t *testing.T) {
	admins := []*domain.User{
		{FullName: "管理员甲", Email: "a@example.com"},
		{FullName: "管理员乙", Email: "b@example.com"},
	}
	vehicle := &domain.Vehicle{Name: "3 号叉车", PlateNumber: "粤A12345"}
	operator := &domain.User{FullName: "李四"}
	check := &domain.PreShiftCheck{
		ID: 9,
		Items: []domain.ChecklistItem{
			{ID: 1, Question: "刹车是否灵敏", IsCritical: true},
			{ID: 2, Question: "喇叭是否正常"},
			{ID: 3, Question: "轮胎是否漏气"},
		},
	}
	result := domain.ValidationResult{
		FailedItemIDs:      []int64{1, 3},
		CriticalFailureIDs: []int64{1},
	}

	messages := VehicleBlockedMessages(admins, vehicle, operator, check, result)

	if len(messages) != 2 {
		t.Fatalf("期望 2 封邮件, 实际 %d", len(messages))
	}
	for i, msg := range messages {
		if msg.To != admins[i].Email || msg.Type != domain.MailTypeVehicleBlocked {
			t.Errorf("第 %d 封邮件收件人或类型错误: %+v", i, msg)
		}
		data := msg.Data.(domain.VehicleBlockedMailData)
		if data.CriticalFailures != 1 || len(data.FailedQuestions) != 2 {
			t.Errorf("第 %d 封邮件内容错误: %+v", i, data)
		}
		if data.FailedQuestions[0] != "刹车是否灵敏" || data.FailedQuestions[1] != "轮胎是否漏气" {
			t.Errorf("不合格题目顺序错误: %v", data.FailedQuestions)
		}
	}
}
