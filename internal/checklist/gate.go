package checklist

import (
	"context"
	"log/slog"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

type SubmitOutcome struct {
	Check            *domain.PreShiftCheck    `json:"check"`
	Result           domain.ValidationResult  `json:"result"`
	SessionStarted   bool                     `json:"sessionStarted"`
	OperatingSession *domain.OperatingSession `json:"operatingSession"`
	// 作业会话启动失败时不为 nil，此时检查单依然已经正确提交
	SessionErr error `json:"-"`
}

// Gate 负责提交检查单，并在检查通过时开始作业会话
type Gate struct {
	session  *Session
	sessions SessionStore
	logger   *slog.Logger
}

func NewGate(session *Session, sessions SessionStore, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		session:  session,
		sessions: sessions,
		logger:   logger,
	}
}

func (g *Gate) Submit(ctx context.Context, checkID int64) (*SubmitOutcome, error) {
	check, result, err := g.session.finalize(ctx, checkID)
	if err != nil {
		return nil, err
	}

	outcome := &SubmitOutcome{
		Check:  check,
		Result: result,
	}

	if !result.CanStartSession {
		g.logger.Warn("关键项不合格，车辆禁止作业", "checkID", check.ID, "vehicleID", check.VehicleID, "criticalFailures", result.CriticalFailureIDs)
		return outcome, nil
	}

	// 作业会话启动失败不会回滚检查单，检查结论与作业状态互不影响
	sess, err := g.sessions.StartOperatingSession(ctx, check.VehicleID, check.OperatorID, check.ID)
	if err != nil {
		g.logger.Error("无法开始作业会话", "checkID", check.ID, "vehicleID", check.VehicleID, "error", err)
		outcome.SessionErr = err
		return outcome, nil
	}

	outcome.SessionStarted = true
	outcome.OperatingSession = sess

	return outcome, nil
}

// RetrySessionStart 用于提交时作业会话启动失败后的重试，只允许已通过的检查单
func (g *Gate) RetrySessionStart(ctx context.Context, checkID int64) (*domain.OperatingSession, error) {
	check, err := g.session.Get(ctx, checkID)
	if err != nil {
		return nil, err
	}

	if check.Status != domain.CheckStatusCompletedPass {
		return nil, domain.ErrSessionNotAllowed
	}

	return g.sessions.StartOperatingSession(ctx, check.VehicleID, check.OperatorID, check.ID)
}
