package shm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"structhealth/pkg/common"
	"structhealth/pkg/metrics"
	"structhealth/pkg/models"
)

// ingest records one reading and reacts to it: persist the reading, refresh
// the sensor's current-reading snapshot, evaluate thresholds, and store any
// resulting alert. The reading write is the durability guarantee; a failed
// alert write is logged and does not fail the ingest.
func (s *SHM) ingest(ctx context.Context, sensorID string, input *models.SensorReading) (*models.SensorReading, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameSHMCore,
		zap.String(common.LoggerFieldSHMCategory, common.LoggerCategorySHMReading),
	)

	conn := s.Db.Conn.WithContext(ctx)

	var sensor models.Sensor
	if err := conn.First(&sensor, "sensor_id = ?", sensorID).Error; err != nil {
		return nil, common.ClassifyStorageError(err)
	}

	reading := models.SensorReading{
		SensorID:           sensorID,
		ProjectID:          sensor.ProjectID,
		Timestamp:          input.Timestamp,
		Value:              input.Value,
		Unit:               input.Unit,
		Quality:            input.Quality,
		IsAnomaly:          input.IsAnomaly,
		AnomalyReason:      input.AnomalyReason,
		MetaTemperature:    input.MetaTemperature,
		MetaHumidity:       input.MetaHumidity,
		MetaBatteryLevel:   input.MetaBatteryLevel,
		MetaSignalStrength: input.MetaSignalStrength,
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}
	if reading.Quality == "" {
		reading.Quality = models.ReadingQualityGood
	}
	if reading.Unit == "" {
		reading.Unit = sensor.Unit
	}

	logger.Info("Received reading for sensor", zap.Reflect("reading", reading))

	if err := conn.Create(&reading).Error; err != nil {
		return nil, common.ClassifyStorageError(err)
	}

	metrics.ReadingsIngestedTotal.WithLabelValues(string(reading.Quality)).Inc()

	// Last write wins on the snapshot. Out-of-order backfills may leave the
	// cache behind the newest timestamp; the cache is advisory only.
	err := conn.Model(&models.Sensor{}).
		Where("sensor_id = ?", sensorID).
		Updates(map[string]any{
			"current_value":     reading.Value,
			"current_timestamp": reading.Timestamp,
			"current_unit":      reading.Unit,
		}).Error
	if err != nil {
		return nil, common.ClassifyStorageError(err)
	}

	if draft := Evaluate(sensor.Thresholds(), sensor.SensorName, reading.Value, reading.Unit); draft != nil {
		logger.Info("Threshold breached", zap.Reflect("draft", draft))

		if s.Alert == nil {
			logger.Error("Alert service not available, dropping alert draft",
				zap.String("sensor_id", sensorID))
			return &reading, nil
		}

		alert := models.Alert{
			ProjectID:    sensor.ProjectID,
			SensorID:     sensorID,
			AlertType:    draft.AlertType,
			Severity:     draft.Severity,
			Title:        draft.Title,
			Message:      draft.Message,
			Value:        &draft.Value,
			ThresholdMin: draft.Threshold.Min,
			ThresholdMax: draft.Threshold.Max,
			Status:       models.AlertStatusActive,
		}
		if err := s.Alert.CreateAlert(ctx, &alert); err != nil {
			// The reading is already durable; alerting stays best-effort.
			logger.Error("Failed to store alert for threshold breach",
				zap.String("sensor_id", sensorID), zap.Error(err))
		}
	}

	return &reading, nil
}

func (s *SHM) getSensorReadings(ctx context.Context, sensorID string, query models.ReadingQuery) ([]models.SensorReading, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	q := s.Db.Conn.WithContext(ctx).Where("sensor_id = ?", sensorID)
	if !query.Since.IsZero() {
		q = q.Where("timestamp >= ?", query.Since)
	}
	if !query.Until.IsZero() {
		q = q.Where("timestamp <= ?", query.Until)
	}

	var readings []models.SensorReading
	err := q.Order("timestamp desc").Limit(limit).Find(&readings).Error
	if err != nil {
		return nil, common.ClassifyStorageError(err)
	}
	return readings, nil
}

type IReadingImpl struct {
	shm *SHM
}

func (ir *IReadingImpl) Ingest(ctx context.Context, sensorID string, input *models.SensorReading) (*models.SensorReading, error) {
	return ir.shm.ingest(ctx, sensorID, input)
}

func (ir *IReadingImpl) GetSensorReadings(ctx context.Context, sensorID string, query models.ReadingQuery) ([]models.SensorReading, error) {
	return ir.shm.getSensorReadings(ctx, sensorID, query)
}

func (s *SHM) GetIReading() IReading {
	return &IReadingImpl{shm: s}
}
