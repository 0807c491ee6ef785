package shm

import (
	"fmt"
	"strconv"

	"structhealth/pkg/models"
)

// AlertDraft is an in-memory candidate alert synthesized by Evaluate. It is
// not persisted until the ingest pipeline hands it to the alert service.
type AlertDraft struct {
	AlertType models.AlertType
	Severity  models.AlertSeverity
	Title     string
	Message   string
	Value     float64
	Threshold models.ThresholdBand
}

// Evaluate decides whether a reading breaches the sensor's thresholds and
// returns at most one draft. Critical dominates warning: when both tiers are
// breached by the same reading only the critical draft is produced. Bounds
// compare strictly, so a value exactly on a bound never triggers. Pure
// function, no side effects.
func Evaluate(thresholds models.Thresholds, sensorName string, value float64, unit string) *AlertDraft {
	if thresholds.Critical.Breached(value) {
		return newDraft(models.AlertTypeThresholdCritical, models.AlertSeverityCritical,
			*thresholds.Critical, sensorName, value, unit)
	}
	if thresholds.Warning.Breached(value) {
		return newDraft(models.AlertTypeThresholdWarning, models.AlertSeverityHigh,
			*thresholds.Warning, sensorName, value, unit)
	}
	return nil
}

func newDraft(alertType models.AlertType, severity models.AlertSeverity,
	band models.ThresholdBand, sensorName string, value float64, unit string) *AlertDraft {
	return &AlertDraft{
		AlertType: alertType,
		Severity:  severity,
		Title:     fmt.Sprintf("%s %s threshold exceeded", sensorName, severity),
		Message: fmt.Sprintf("Sensor reading of %s%s exceeds %s threshold",
			formatValue(value), unit, severity),
		Value:     value,
		Threshold: band,
	}
}

// formatValue renders without a forced decimal point so messages read
// "150mm" rather than "150.000000mm".
func formatValue(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
