package models

import "time"

// Closed code sets from the shipments schema. Rows outside them never reach storage.
var (
	Destinations = map[string]struct{}{
		"GUY": {}, "SVG": {}, "SLU": {}, "BIM": {}, "DOM": {},
		"GRD": {}, "SKN": {}, "ANU": {}, "SXM": {}, "FSXM": {},
	}
	Carriers = map[string]struct{}{
		"FEDEX": {}, "DHL": {}, "USPS": {}, "UPS": {}, "AMAZON": {},
	}
	Modes = map[string]struct{}{
		"air": {}, "sea": {},
	}
	Statuses = map[string]struct{}{
		"received": {}, "intransit": {}, "delivered": {},
	}
)

const (
	StatusReceived  = "received"
	StatusInTransit = "intransit"
	StatusDelivered = "delivered"
)

type Shipment struct {
	ShipmentID    int64     `json:"shipment_id"`
	CustomerID    int64     `json:"customer_id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Weight        int64     `json:"weight"`
	Volume        int64     `json:"volume"`
	Carrier       string    `json:"carrier"`
	Mode          string    `json:"mode"`
	Status        string    `json:"status"`
	ArrivalDate   string    `json:"arrival_date"`
	DepartureDate *string   `json:"departure_date"`
	DeliveredDate *string   `json:"delivered_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ShipmentUpsert is one normalized CSV row, ready for the batch writer.
// Dates travel as strings ("YYYY-MM-DD"); Postgres parses them into DATE columns.
type ShipmentUpsert struct {
	ShipmentID    int64
	CustomerID    int64
	Origin        string
	Destination   string
	Weight        int64
	Volume        int64
	Carrier       string
	Mode          string
	Status        string
	ArrivalDate   string
	DepartureDate *string
	DeliveredDate *string
}
