package dto

type CreateClientRequest struct {
	Phone      string `json:"phone" validate:"required,min=7,max=20" example:"0722000111"`
	MACAddress string `json:"mac_address" validate:"required,min=12,max=17" example:"aa:bb:cc:dd:ee:ff"`
	Rewarded   *bool  `json:"rewarded,omitempty"`
}

type SetClientRewardedRequest struct {
	Rewarded *bool `json:"rewarded" validate:"required"`
}

type ClientDTO struct {
	ID         uint   `json:"id"`
	Phone      string `json:"phone"`
	MACAddress string `json:"mac_address"`
	Rewarded   bool   `json:"rewarded"`
	CreatedAt  string `json:"created_at"`
}

// SessionDataDTO is the live session a device reported for a client
type SessionDataDTO struct {
	SessionID  string `json:"session_id"`
	MACAddress string `json:"mac_address"`
	Username   string `json:"username"`
	Address    string `json:"address"`
	Uptime     string `json:"uptime"`
	BytesIn    int64  `json:"bytes_in"`
	BytesOut   int64  `json:"bytes_out"`
	ServerTag  string `json:"server_tag"`
}

type ReconciledClientDTO struct {
	ClientDTO
	IsActive    bool            `json:"is_active"`
	SessionData *SessionDataDTO `json:"session_data"`
}

// ReconciledClientsResponse carries provenance: source is "device" or "local"
type ReconciledClientsResponse struct {
	Source   string                `json:"source" example:"device"`
	Warning  string                `json:"warning,omitempty"`
	DeviceID *uint                 `json:"device_id,omitempty"`
	Clients  []ReconciledClientDTO `json:"clients"`
}
