package model

// ParticipantID uniquely identifies a participant within a room
type ParticipantID string

// ParticipantView is the public projection of a participant returned on join
// and embedded in snapshots
type ParticipantView struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"displayName"`
	Color       string        `json:"color"`
	Score       int           `json:"score"`
	Alive       bool          `json:"alive"`
	GameOver    bool          `json:"gameOver"`
	WalletRef   string        `json:"walletRef,omitempty"`
	// AttestationRef is the opaque transaction reference returned by the
	// attestation collaborator, surfaced once available
	AttestationRef string `json:"attestationRef,omitempty"`
}

// SessionID identifies one recorded play session of a room
type SessionID string

// ResultEntry is one participant's final standing in a completed session
type ResultEntry struct {
	ParticipantRef string             `json:"participantRef"`
	DisplayName    string             `json:"displayName"`
	Score          int                `json:"score"`
	Rank           int                `json:"rank"`
	WalletRef      string             `json:"walletRef,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}
