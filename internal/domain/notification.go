package domain

type NotificationType string

const (
	NotificationSwapProposed NotificationType = "swap_proposed"
	NotificationSwapOutcome  NotificationType = "swap_outcome"
	NotificationTest         NotificationType = "test"
)

// Recipient carries the contact handles the delivery worker can use.
// Telegram is preferred when a chat ID is configured, email otherwise.
type Recipient struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	TelegramChatID string `json:"telegramChatID"`
}

type Notification struct {
	Type NotificationType `json:"type"`
	To   Recipient        `json:"to"`
	Data any              `json:"data"`
}

type SwapProposedData struct {
	RequestID     int64  `json:"requestID"`
	RequesterName string `json:"requesterName"`
	ShiftDate     string `json:"shiftDate"`
	ShiftTime     string `json:"shiftTime"`
	UnitCode      string `json:"unitCode"`
	Reason        string `json:"reason"`
}

type SwapOutcomeData struct {
	RequestID     int64  `json:"requestID"`
	Status        string `json:"status"`
	RequesterName string `json:"requesterName"`
	TargetName    string `json:"targetName"`
	ShiftDate     string `json:"shiftDate"`
	ShiftTime     string `json:"shiftTime"`
	UnitCode      string `json:"unitCode"`
}

type TestNotificationData struct {
	Message string `json:"message"`
}
