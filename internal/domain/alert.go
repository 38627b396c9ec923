package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertType identifies what an outbound alert is about.
type AlertType string

const (
	AlertDrought            AlertType = "DROUGHT"
	AlertHeavyRainfall      AlertType = "HEAVY_RAINFALL"
	AlertTemperatureExtreme AlertType = "TEMPERATURE_EXTREME"
	AlertPlantingReminder   AlertType = "PLANTING_REMINDER"
	AlertMarketPrice        AlertType = "MARKET_PRICE"
	AlertCustom             AlertType = "CUSTOM"
)

// AlertSeverity grades an alert's urgency.
type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "LOW"
	SeverityMedium AlertSeverity = "MEDIUM"
	SeverityHigh   AlertSeverity = "HIGH"
)

// AlertStatus is an alert's position in the delivery lifecycle.
type AlertStatus string

const (
	AlertQueued    AlertStatus = "QUEUED"
	AlertSent      AlertStatus = "SENT"
	AlertFailed    AlertStatus = "FAILED"
	AlertCancelled AlertStatus = "CANCELLED"
)

// Terminal reports whether no further delivery attempts happen from s.
func (s AlertStatus) Terminal() bool {
	return s == AlertSent || s == AlertFailed || s == AlertCancelled
}

// MaxDeliveryAttempts is the number of failed deliveries after which an alert
// transitions to FAILED. Retries ride on dispatcher invocations; there is no
// in-process backoff timer.
const MaxDeliveryAttempts = 3

// Alert is one outbound notification instance. Rows are created by the
// generator, mutated only by the dispatcher, and never deleted, forming an
// append-only delivery ledger.
type Alert struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	FarmerID          uuid.UUID     `gorm:"type:uuid;index" json:"farmer_id"`
	Type              AlertType     `json:"type"`
	Severity          AlertSeverity `json:"severity"`
	MessageText       string        `json:"message_text"`
	ScheduleTime      time.Time     `gorm:"index" json:"schedule_time"`
	Status            AlertStatus   `gorm:"index" json:"status"`
	Attempts          int           `json:"attempts"`
	ProviderMessageID *string       `json:"provider_message_id,omitempty"`
	LastAttemptAt     *time.Time    `json:"last_attempt_at,omitempty"`
	CreatedAt         time.Time     `gorm:"index" json:"created_at"`
}

// NewAlert builds a queued alert scheduled for immediate delivery.
func NewAlert(farmerID uuid.UUID, alertType AlertType, severity AlertSeverity, message string, now time.Time) *Alert {
	return &Alert{
		ID:           uuid.New(),
		FarmerID:     farmerID,
		Type:         alertType,
		Severity:     severity,
		MessageText:  message,
		ScheduleTime: now,
		Status:       AlertQueued,
		Attempts:     0,
		CreatedAt:    now,
	}
}

// messageSuffix is the fixed sign-off appended to every alert message.
const messageSuffix = " - AGRIADAPT"

// namePrefix formats the optional farmer-name greeting.
func namePrefix(farmerName string) string {
	if farmerName == "" {
		return ""
	}
	return farmerName + ", "
}

// DroughtMessage renders the DROUGHT alert template.
func DroughtMessage(farmerName string, days int) string {
	return fmt.Sprintf("%sDrought Alert: No significant rainfall expected for next %d days. Consider water-saving measures and delay planting if possible.%s",
		namePrefix(farmerName), days, messageSuffix)
}

// HeavyRainfallMessage renders the HEAVY_RAINFALL alert template.
func HeavyRainfallMessage(farmerName string, rainfallMm float64) string {
	return fmt.Sprintf("%sHeavy Rain Alert: %.1fmm expected over the next 7 days. Prepare drainage and avoid fertilizer application.%s",
		namePrefix(farmerName), rainfallMm, messageSuffix)
}

// TemperatureMessage renders the TEMPERATURE_EXTREME alert template. isHot
// selects heat versus cold wording.
func TemperatureMessage(farmerName string, temp float64, isHot bool) string {
	kind := "Cold"
	if isHot {
		kind = "Heat"
	}
	return fmt.Sprintf("%s%s Alert: Extreme temperature %.0f°C expected. Take protective measures for crops and livestock.%s",
		namePrefix(farmerName), kind, temp, messageSuffix)
}

// PlantingReminderMessage renders the PLANTING_REMINDER alert template.
func PlantingReminderMessage(farmerName, cropType string) string {
	return fmt.Sprintf("%sPlanting Reminder: Optimal planting window for %s is approaching. Prepare fields and seeds.%s",
		namePrefix(farmerName), cropType, messageSuffix)
}

// MarketPriceMessage renders the MARKET_PRICE alert template. Price is in
// ETB per kilogram.
func MarketPriceMessage(farmerName, cropType string, price float64) string {
	return fmt.Sprintf("%sMarket Update: %s price is %.2f ETB/kg at local market.%s",
		namePrefix(farmerName), cropType, price, messageSuffix)
}
