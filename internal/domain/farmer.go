package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FarmType classifies a farm's primary production.
type FarmType string

const (
	FarmTypeCrop      FarmType = "CROP"
	FarmTypeLivestock FarmType = "LIVESTOCK"
	FarmTypeMixed     FarmType = "MIXED"
)

// Valid reports whether t is a known farm type.
func (t FarmType) Valid() bool {
	switch t {
	case FarmTypeCrop, FarmTypeLivestock, FarmTypeMixed:
		return true
	}
	return false
}

// WaterAccess describes how a farm is watered.
type WaterAccess string

const (
	WaterAccessRainFed    WaterAccess = "RAIN_FED"
	WaterAccessIrrigation WaterAccess = "IRRIGATION"
	WaterAccessMixed      WaterAccess = "MIXED"
)

// Valid reports whether w is a known water-access mode.
func (w WaterAccess) Valid() bool {
	switch w {
	case WaterAccessRainFed, WaterAccessIrrigation, WaterAccessMixed:
		return true
	}
	return false
}

// Supported advisory languages (ISO 639-1 codes).
const (
	LanguageAmharic  = "am"
	LanguageOromo    = "or"
	LanguageTigrinya = "ti"
	LanguageEnglish  = "en"
)

// LanguageName maps a supported language code to its English name, used when
// instructing the text-generation collaborator. Unknown codes map to the code
// itself.
func LanguageName(code string) string {
	switch code {
	case LanguageAmharic:
		return "Amharic"
	case LanguageOromo:
		return "Afaan Oromo"
	case LanguageTigrinya:
		return "Tigrigna"
	case LanguageEnglish:
		return "English"
	}
	return code
}

// Kebele is the lowest administrative unit and the geographic key for
// weather snapshots. Woreda and Zone are flattened display labels.
type Kebele struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Woreda    string    `json:"woreda"`
	Zone      string    `json:"zone"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FarmerProfile is a registered farmer as seen by the advisory pipeline.
// It is immutable during a single advisory computation; only the (external)
// registration system mutates it.
type FarmerProfile struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	FullName    string      `json:"full_name"`
	Phone       string      `json:"phone"`
	FarmType    FarmType    `json:"farm_type"`
	CropType    *string     `json:"crop_type,omitempty"`
	SoilType    *string     `json:"soil_type,omitempty"`
	WaterAccess WaterAccess `json:"water_access"`
	FarmSizeHa  *float64    `json:"farm_size_ha,omitempty"`
	KebeleID    uuid.UUID   `gorm:"type:uuid" json:"kebele_id"`
	Kebele      *Kebele     `gorm:"foreignKey:KebeleID" json:"kebele,omitempty"`
	Latitude    *float64    `json:"latitude,omitempty"`
	Longitude   *float64    `json:"longitude,omitempty"`
	Consent     bool        `json:"consent"`
	Language    string      `json:"language"`
	CreatedAt   time.Time   `json:"created_at"`
}

// LocationLabel renders a human-readable location for prompts and rendered
// advisories: "Kebele 01, Adama, East Shoa". Falls back to "Ethiopia" when no
// kebele is loaded.
func (f *FarmerProfile) LocationLabel() string {
	if f.Kebele == nil {
		return "Ethiopia"
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{f.Kebele.Name, f.Kebele.Woreda, f.Kebele.Zone} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Ethiopia"
	}
	return strings.Join(parts, ", ")
}

// SubscriptionStatus is the lifecycle state of an alert subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPaused    SubscriptionStatus = "PAUSED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription entitles a farmer to alert delivery. Alert generation requires
// at least one ACTIVE subscription in addition to consent.
type Subscription struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	FarmerID  uuid.UUID          `gorm:"type:uuid;index" json:"farmer_id"`
	Plan      string             `json:"plan"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}
