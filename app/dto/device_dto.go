package dto

// UpsertDeviceRequest creates a device when ID is empty and updates it otherwise.
// Password may be omitted on update to keep the stored credential.
type UpsertDeviceRequest struct {
	ID          *uint  `json:"id,omitempty"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	Family      string `json:"family,omitempty" validate:"omitempty,oneof=routeros"`
	Host        string `json:"host" validate:"required,max=255"`
	Port        int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Username    string `json:"username" validate:"required,max=100"`
	Password    string `json:"password,omitempty" validate:"omitempty,max=255"`
	UseTLS      *bool  `json:"use_tls,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type DeviceDTO struct {
	ID          uint    `json:"id"`
	UUID        string  `json:"uuid"`
	DisplayName string  `json:"display_name"`
	Family      string  `json:"family"`
	Host        string  `json:"host"`
	Port        int     `json:"port"`
	Username    string  `json:"username"`
	UseTLS      bool    `json:"use_tls"`
	IsActive    bool    `json:"is_active"`
	LastSeenAt  *string `json:"last_seen_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type DeviceTestResponse struct {
	DeviceID  uint   `json:"device_id"`
	Reachable bool   `json:"reachable"`
	CheckedAt string `json:"checked_at"`
}

type DeviceUserDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Profile    string `json:"profile,omitempty"`
	MACAddress string `json:"mac_address,omitempty"`
	Server     string `json:"server,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Disabled   bool   `json:"disabled"`
}

type DeviceInterfaceDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	MACAddress string `json:"mac_address,omitempty"`
	Running    bool   `json:"running"`
	Disabled   bool   `json:"disabled"`
}
