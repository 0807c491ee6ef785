package shm

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"structhealth/pkg/common"
	"structhealth/pkg/models"
)

func (s *SHM) upsertSensor(ctx context.Context, sensorID string, input *models.Sensor) error {
	logger := common.GetLoggerWith(
		common.LoggerNameSHMCore,
		zap.String(common.LoggerFieldSHMCategory, common.LoggerCategorySHMSensor),
	)

	sensor := models.Sensor{
		SensorID:    sensorID,
		SensorName:  input.SensorName,
		ProjectID:   input.ProjectID,
		SensorType:  input.SensorType,
		Status:      input.Status,
		Unit:        input.Unit,
		WarningMin:  input.WarningMin,
		WarningMax:  input.WarningMax,
		CriticalMin: input.CriticalMin,
		CriticalMax: input.CriticalMax,
	}
	if sensor.SensorType == "" {
		sensor.SensorType = models.SensorTypeOther
	}
	if sensor.Status == "" {
		sensor.Status = models.SensorStatusActive
	}

	logger.Info("Received sensor config", zap.Reflect("sensor", sensor))

	err := s.Db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sensor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sensor_name", "project_id", "sensor_type", "status", "unit",
			"warning_min", "warning_max", "critical_min", "critical_max",
		}),
	}).Create(&sensor).Error

	if err != nil {
		return common.ClassifyStorageError(err)
	}

	logger.Info("Upserted sensor config", zap.Reflect("sensor", sensor))
	return nil
}

func (s *SHM) getSensor(ctx context.Context, sensorID string) (*models.Sensor, error) {
	var sensor models.Sensor
	err := s.Db.Conn.WithContext(ctx).First(&sensor, "sensor_id = ?", sensorID).Error
	if err != nil {
		return nil, common.ClassifyStorageError(err)
	}
	return &sensor, nil
}

type ISensorImpl struct {
	shm *SHM
}

func (is *ISensorImpl) UpsertSensor(ctx context.Context, sensorID string, input *models.Sensor) error {
	return is.shm.upsertSensor(ctx, sensorID, input)
}

func (is *ISensorImpl) GetSensor(ctx context.Context, sensorID string) (*models.Sensor, error) {
	return is.shm.getSensor(ctx, sensorID)
}

func (s *SHM) GetISensor() ISensor {
	return &ISensorImpl{shm: s}
}
