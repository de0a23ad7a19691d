// internal/storage/models/curve.go
package models

// CurveSnapshot is the latest persisted reserve state of one bonding curve,
// upserted after every settled trade and at creation/withdrawal.
type CurveSnapshot struct {
	BaseModel
	Mint                 string `gorm:"unique;not null;type:varchar(44)"`
	Creator              string `gorm:"not null;type:varchar(44)"`
	Name                 string `gorm:"type:varchar(100)"`
	Symbol               string `gorm:"type:varchar(20)"`
	URI                  string `gorm:"type:text"`
	VirtualSolReserves   uint64 `gorm:"not null;type:numeric(20,0)"`
	VirtualTokenReserves uint64 `gorm:"not null;type:numeric(20,0)"`
	RealSolReserves      uint64 `gorm:"not null;type:numeric(20,0)"`
	RealTokenReserves    uint64 `gorm:"not null;type:numeric(20,0)"`
	TokenTotalSupply     uint64 `gorm:"not null;type:numeric(20,0)"`
	Complete             bool   `gorm:"not null"`
}
