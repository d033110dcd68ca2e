package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeCreateUser         = "create_user"
	MailTypeVehicleBlocked     = "vehicle_blocked"
	MailTypeSessionStartFailed = "session_start_failed"
)

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type VehicleBlockedMailData struct {
	FullName         string   `json:"fullName"`
	VehicleName      string   `json:"vehicleName"`
	PlateNumber      string   `json:"plateNumber"`
	OperatorName     string   `json:"operatorName"`
	CheckID          int64    `json:"checkID"`
	FailedQuestions  []string `json:"failedQuestions"`
	CriticalFailures int      `json:"criticalFailures"`
}

type SessionStartFailedMailData struct {
	FullName    string `json:"fullName"`
	VehicleName string `json:"vehicleName"`
	CheckID     int64  `json:"checkID"`
	Reason      string `json:"reason"`
}
