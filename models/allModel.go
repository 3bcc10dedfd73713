package models

import "github.com/shopspring/decimal"

// Slim list shapes for redis-cached dropdown lists.

type AllVenue struct {
	ID                   int             `json:"id"`
	BusinessId           string          `json:"business_id"`
	Name                 string          `json:"name"`
	City                 string          `json:"city"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	IsActive             *bool           `json:"is_active"`
}

type AllMachine struct {
	ID          int           `json:"id"`
	BusinessId  string        `json:"business_id"`
	VenueId     int           `json:"venue_id"`
	Name        string        `json:"name"`
	Barcode     string        `json:"barcode"`
	MachineType MachineType   `json:"machine_type"`
	Status      MachineStatus `json:"status"`
}

type AllPrize struct {
	ID         int             `json:"id"`
	BusinessId string          `json:"business_id"`
	Name       string          `json:"name"`
	Sku        string          `json:"sku"`
	Cost       decimal.Decimal `json:"cost"`
	IsActive   *bool           `json:"is_active"`
}

type AllPart struct {
	ID             int             `json:"id"`
	BusinessId     string          `json:"business_id"`
	Name           string          `json:"name"`
	PartNumber     string          `json:"part_number"`
	Cost           decimal.Decimal `json:"cost"`
	QuantityOnHand int             `json:"quantity_on_hand"`
}
