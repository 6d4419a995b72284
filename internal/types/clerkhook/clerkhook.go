package clerkhook

// WebhookEvent is the envelope Clerk posts to the user-sync webhook.
type WebhookEvent struct {
	Type   string           `json:"type"`
	Object string           `json:"object"`
	Data   WebhookEventData `json:"data"`
}

type WebhookEventData struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

type EmailAddress struct {
	ID           string       `json:"id"`
	EmailAddress string       `json:"email_address"`
	Verification Verification `json:"verification"`
}

type Verification struct {
	Status string `json:"status"`
}
