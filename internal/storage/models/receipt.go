// internal/storage/models/receipt.go
package models

import "time"

// TradeReceipt is the durable, write-once record of one settled trade.
// Rows are never updated after insert. Monetary columns are numeric(20,0)
// so the full uint64 range survives the round trip.
type TradeReceipt struct {
	BaseModel
	ReceiptID            string    `gorm:"unique;not null;type:varchar(36)"`
	Mint                 string    `gorm:"index;not null;type:varchar(44)"`
	UserAddress          string    `gorm:"index;not null;type:varchar(44)"`
	IsBuy                bool      `gorm:"not null"`
	SolAmount            uint64    `gorm:"not null;type:numeric(20,0)"`
	TokenAmount          uint64    `gorm:"not null;type:numeric(20,0)"`
	Fee                  uint64    `gorm:"not null;type:numeric(20,0)"`
	VirtualSolReserves   uint64    `gorm:"not null;type:numeric(20,0)"`
	VirtualTokenReserves uint64    `gorm:"not null;type:numeric(20,0)"`
	RealSolReserves      uint64    `gorm:"not null;type:numeric(20,0)"`
	RealTokenReserves    uint64    `gorm:"not null;type:numeric(20,0)"`
	Complete             bool      `gorm:"not null"`
	ExecutedAt           time.Time `gorm:"index;not null"`
}
