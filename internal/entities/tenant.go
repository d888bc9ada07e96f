package entities

import (
	"strings"
	"time"
)

// ERPConfig holds the per-tenant order-status API settings. Both fields are optional.
type ERPConfig struct {
	BaseURL string `json:"api_base_url,omitempty"`
	Token   string `json:"-"`
}

type Tenant struct {
	ID          int64     `json:"client_id"`
	Name        string    `json:"client_name"`
	AccessToken string    `json:"-"`
	ERP         ERPConfig `json:"erp"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasOrderAPI reports whether the tenant can be queried for order status.
func (t *Tenant) HasOrderAPI() bool {
	return strings.TrimSpace(t.ERP.BaseURL) != "" && strings.TrimSpace(t.ERP.Token) != ""
}

// OrderStatus is the subset of an ERP sale record the bot replies with.
type OrderStatus struct {
	Code   string
	Status string
}
