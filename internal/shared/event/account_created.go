package event

import "time"

const AccountCreatedDestination string = "auth.account.created"
const AccountCreatedConsumerNotification string = "auth_account_created_notification"

type AccountCreatedMessage struct {
	UID            string    `json:"uid"`
	Phone          string    `json:"phone"`
	PhoneFormatted string    `json:"phone_formatted"`
	CreatedAt      time.Time `json:"created_at"`
}
