package forms

import "time"

// TroubleshootingForm describes an access problem with an automation platform.
type TroubleshootingForm struct {
	Platform             string `json:"platform"`
	AccountCreationSteps string `json:"accountCreationSteps"`
	ErrorMessage         string `json:"errorMessage"`
	LastAccess           string `json:"lastAccess"`
	RecentChanges        string `json:"recentChanges"`
	BrowserInfo          string `json:"browserInfo"`
}

// TroubleshootingPayload is the webhook body for a troubleshooting ticket.
type TroubleshootingPayload struct {
	Type string `json:"type"`
	TroubleshootingForm
	Timestamp time.Time `json:"timestamp"`
}

// Validate collects a message for each missing required field.
// The error message and recent changes are optional.
func (f TroubleshootingForm) Validate() error {
	var errs ValidationErrors
	if blank(f.Platform) {
		errs.add("platform", "Please select a platform")
	}
	if blank(f.AccountCreationSteps) {
		errs.add("accountCreationSteps", "Please describe how you created your account")
	}
	if blank(f.LastAccess) {
		errs.add("lastAccess", "Please tell us when you last accessed the system")
	}
	if blank(f.BrowserInfo) {
		errs.add("browserInfo", "Browser and system information is required")
	}
	return errs.errOrNil()
}

// Payload tags and stamps the ticket for delivery.
func (f TroubleshootingForm) Payload(now time.Time) TroubleshootingPayload {
	return TroubleshootingPayload{Type: "troubleshooting_request", TroubleshootingForm: f, Timestamp: now.UTC()}
}
