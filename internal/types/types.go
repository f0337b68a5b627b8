package types

// SendMessageRequest is the body of POST /wa/send.
type SendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// BroadcastRequest is the body of POST /wa/broadcast.
type BroadcastRequest struct {
	Phones  []string `json:"phones"`
	Message string   `json:"message"`
}

// BroadcastResult reports the per-recipient outcome of a broadcast.
type BroadcastResult struct {
	Phone string `json:"phone"`
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// StatusResponse is the body of GET /wa/status.
type StatusResponse struct {
	Connected            bool   `json:"connected"`
	BotName              string `json:"bot_name"`
	BotPhone             string `json:"bot_phone"`
	Owner                string `json:"owner"`
	BlockedUsers         int    `json:"blocked_users"`
	ActiveSessions       int    `json:"active_sessions"`
	PendingVerifications int    `json:"pending_verifications"`
}

// TokenResponse is the body of POST /auth/token.
type TokenResponse struct {
	Token string `json:"token"`
}
