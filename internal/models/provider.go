package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ServiceTypeRainwater = "rwh"
	ServiceTypeBorehole  = "borehole"
)

// Provider profile linked to user with 'provider' role
type Provider struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CreatedAt   time.Time
	Name        string
	ServiceType *string // nil if not set
	Rating      decimal.Decimal
	Description *string
}

func IsKnownServiceType(serviceType string) bool {
	return serviceType == ServiceTypeRainwater || serviceType == ServiceTypeBorehole
}
