package model

// StatusResponse summarizes the wallet and app state for GET /wallet/status.
type StatusResponse struct {
	MasterSecret  string `json:"masterSecret,omitempty"` // shortened
	Balance       string `json:"balance,omitempty"`
	Locked        bool   `json:"locked"`
	Busy          bool   `json:"busy"`
	BusyWorkflow  string `json:"busyWorkflow,omitempty"`
	View          string `json:"view"`
	Downloaded    bool   `json:"downloaded"`
	Encrypted     bool   `json:"encrypted"`
	TermsAccepted bool   `json:"termsAccepted"`
}

// AckResponse acknowledges a state-changing request.
type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ConfirmResponse is returned when a destructive action needs confirmation.
// Repeating the request with confirm=true proceeds.
type ConfirmResponse struct {
	ConfirmationRequired bool   `json:"confirmationRequired"`
	Prompt               string `json:"prompt"`
}

// CreateWalletRequest is the body of POST /wallet/create.
type CreateWalletRequest struct {
	Confirm bool `json:"confirm"`
}

// RecoverRequest is the body of POST /wallet/recover.
type RecoverRequest struct {
	MasterSecret string `json:"masterSecret"`
	GapLimit     uint64 `json:"gapLimit"`
	Confirm      bool   `json:"confirm"`
}

// PasswordRequest is the body of POST /wallet/password and /wallet/unlock.
type PasswordRequest struct {
	Password string `json:"password"`
}

// ViewRequest is the body of POST /wallet/view.
type ViewRequest struct {
	View string `json:"view"`
}
