// Package models holds the persisted domain records shared between the order
// flow, the storage layer, and the operator notification.
package models

import "time"

// Order is one accepted water-delivery request. Orders are append-only:
// the bot never updates or deletes them.
type Order struct {
	ID            int64     `db:"id"`
	DeliveryDate  string    `db:"delivery_date"` // DD.MM.YYYY
	ClientName    string    `db:"client_name"`
	ClientAddress string    `db:"client_address"`
	Phone         string    `db:"phone"`
	Bottles       int       `db:"bottles"`
	CreatedAt     time.Time `db:"created_at"`
}
