package dto

// CreateTraderRequest registers a trader under a phone-shaped key
type CreateTraderRequest struct {
	Phone string `json:"phone" validate:"required,min=7,max=20" example:"+254712345678"`
	Name  string `json:"name" validate:"required,min=1,max=255" example:"Kiosk 12"`
}

type TraderDTO struct {
	ID        uint   `json:"id"`
	UUID      string `json:"uuid"`
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ListTradersRequest struct {
	Active *bool `query:"active"`
}
