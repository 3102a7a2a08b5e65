package model

// ReceiveRequest is the body of POST /wallet/receive.
type ReceiveRequest struct {
	Webcash string `json:"webcash"`
	Memo    string `json:"memo"`
}

// SendRequest is the body of POST /wallet/send.
type SendRequest struct {
	Amount string `json:"amount"`
	Memo   string `json:"memo"`
}
