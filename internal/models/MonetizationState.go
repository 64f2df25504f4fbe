package models

// NextStep tells the front end what to offer when a caller asks to convert.
type NextStep string

const (
	StepConvert   NextStep = "convert"
	StepRegister  NextStep = "register"
	StepWatchAd   NextStep = "watch_ad"
	StepExhausted NextStep = "exhausted"
)

// MonetizationState is derived from a UsageRecord on every query and never stored.
type MonetizationState struct {
	HasReachedLimit      bool     `json:"hasReachedLimit"`
	CanWatchAd           bool     `json:"canWatchAd"`
	RemainingConversions int      `json:"remainingConversions"`
	RemainingAdWatches   int      `json:"remainingAdWatches"`
	ShowLoginPrompt      bool     `json:"showLoginPrompt"`
	TotalAllowed         int      `json:"totalAllowed"`
	NextStep             NextStep `json:"nextStep"`
}
