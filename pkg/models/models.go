package models

import "time"

type SensorType string

const (
	SensorTypeAccelerometer SensorType = "accelerometer"
	SensorTypeStrainGauge   SensorType = "strain_gauge"
	SensorTypeDisplacement  SensorType = "displacement"
	SensorTypeTemperature   SensorType = "temperature"
	SensorTypeHumidity      SensorType = "humidity"
	SensorTypeVibration     SensorType = "vibration"
	SensorTypeTilt          SensorType = "tilt"
	SensorTypeCrack         SensorType = "crack"
	SensorTypeWindSpeed     SensorType = "wind_speed"
	SensorTypeWindDirection SensorType = "wind_direction"
	SensorTypeOther         SensorType = "other"
)

type SensorStatus string

const (
	SensorStatusActive      SensorStatus = "active"
	SensorStatusInactive    SensorStatus = "inactive"
	SensorStatusMaintenance SensorStatus = "maintenance"
	SensorStatusFaulty      SensorStatus = "faulty"
)

type ReadingQuality string

const (
	ReadingQualityGood    ReadingQuality = "good"
	ReadingQualityFair    ReadingQuality = "fair"
	ReadingQualityPoor    ReadingQuality = "poor"
	ReadingQualityInvalid ReadingQuality = "invalid"
)

type AlertType string

const (
	AlertTypeThresholdWarning  AlertType = "threshold_warning"
	AlertTypeThresholdCritical AlertType = "threshold_critical"
	AlertTypeSensorOffline     AlertType = "sensor_offline"
	AlertTypeDataAnomaly       AlertType = "data_anomaly"
	AlertTypeSystem            AlertType = "system"
)

type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

// ThresholdBand is a one- or two-sided numeric range. A nil bound means no
// limit on that side.
type ThresholdBand struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Breached reports whether value falls strictly outside the band. Values
// exactly on a bound do not breach it.
func (b *ThresholdBand) Breached(value float64) bool {
	if b == nil {
		return false
	}
	if b.Max != nil && value > *b.Max {
		return true
	}
	if b.Min != nil && value < *b.Min {
		return true
	}
	return false
}

// Thresholds holds the per-sensor alerting configuration. A nil tier never
// triggers.
type Thresholds struct {
	Warning  *ThresholdBand `json:"warning,omitempty"`
	Critical *ThresholdBand `json:"critical,omitempty"`
}

type Sensor struct {
	SensorID   string       `gorm:"primaryKey"`
	SensorName string       `gorm:"not null"`
	ProjectID  string       `gorm:"index"`
	SensorType SensorType   `gorm:"type:varchar(20)"`
	Status     SensorStatus `gorm:"type:varchar(15);default:active"`
	Unit       string

	WarningMin  *float64
	WarningMax  *float64
	CriticalMin *float64
	CriticalMax *float64

	// Advisory last-write-wins snapshot of the latest ingested reading.
	CurrentValue     *float64
	CurrentTimestamp *time.Time
	CurrentUnit      string

	CreatedAt time.Time
	UpdatedAt time.Time

	Readings []SensorReading `gorm:"foreignKey:SensorID;references:SensorID"`
	Alerts   []Alert         `gorm:"foreignKey:SensorID;references:SensorID"`
}

// Thresholds assembles the sensor's flat bound columns into evaluator input.
// A tier with neither bound set collapses to nil.
func (s *Sensor) Thresholds() Thresholds {
	var t Thresholds
	if s.WarningMin != nil || s.WarningMax != nil {
		t.Warning = &ThresholdBand{Min: s.WarningMin, Max: s.WarningMax}
	}
	if s.CriticalMin != nil || s.CriticalMax != nil {
		t.Critical = &ThresholdBand{Min: s.CriticalMin, Max: s.CriticalMax}
	}
	return t
}

// SensorReading is an immutable fact: written once by ingest, never updated.
type SensorReading struct {
	ID        uint   `gorm:"primaryKey"`
	SensorID  string `gorm:"index"`
	ProjectID string `gorm:"index"`
	Timestamp time.Time
	Value     float64
	Unit      string
	Quality   ReadingQuality `gorm:"type:varchar(10);default:good;check:quality IN ('good','fair','poor','invalid')"`

	IsAnomaly     bool
	AnomalyReason string

	MetaTemperature    *float64
	MetaHumidity       *float64
	MetaBatteryLevel   *float64
	MetaSignalStrength *float64
}

type Alert struct {
	ID        uint          `gorm:"primaryKey"`
	ProjectID string        `gorm:"index"`
	SensorID  string        `gorm:"index"`
	AlertType AlertType     `gorm:"type:varchar(20);check:alert_type IN ('threshold_warning','threshold_critical','sensor_offline','data_anomaly','system')"`
	Severity  AlertSeverity `gorm:"type:varchar(10);check:severity IN ('low','medium','high','critical')"`
	Title     string
	Message   string
	Value     *float64

	ThresholdMin *float64
	ThresholdMax *float64

	Status AlertStatus `gorm:"type:varchar(15);default:active;index;check:status IN ('active','acknowledged','resolved','dismissed')"`

	AcknowledgedBy string
	AcknowledgedAt *time.Time
	ResolvedBy     string
	ResolvedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Notes []AlertNote `gorm:"foreignKey:AlertID"`
}

// AlertNote rows are append-only; inserting a new row is the atomic append
// that keeps concurrent note writers from clobbering each other.
type AlertNote struct {
	ID        uint `gorm:"primaryKey"`
	AlertID   uint `gorm:"index"`
	User      string
	Note      string
	Timestamp time.Time
}

// ReadingQuery narrows reading lookups. Zero values mean no constraint;
// Limit defaults to 100.
type ReadingQuery struct {
	Since time.Time
	Until time.Time
	Limit int
}

// AlertQuery narrows alert lookups. Zero values mean no constraint; Limit
// defaults to 50.
type AlertQuery struct {
	ProjectID string
	Status    AlertStatus
	Severity  AlertSeverity
	Limit     int
}
