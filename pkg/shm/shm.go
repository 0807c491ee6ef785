package shm

import (
	"context"

	"structhealth/pkg/db"
	"structhealth/pkg/models"
)

type ISensor interface {
	UpsertSensor(ctx context.Context, sensorID string, input *models.Sensor) error
	GetSensor(ctx context.Context, sensorID string) (*models.Sensor, error)
}

type IReading interface {
	Ingest(ctx context.Context, sensorID string, input *models.SensorReading) (*models.SensorReading, error)
	GetSensorReadings(ctx context.Context, sensorID string, query models.ReadingQuery) ([]models.SensorReading, error)
}

type IAlert interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	Acknowledge(ctx context.Context, alertID uint, byUser string) (*models.Alert, error)
	Resolve(ctx context.Context, alertID uint, byUser string) (*models.Alert, error)
	Dismiss(ctx context.Context, alertID uint) (*models.Alert, error)
	AddNote(ctx context.Context, alertID uint, byUser string, text string) (*models.Alert, error)
	GetAlerts(ctx context.Context, query models.AlertQuery) ([]models.Alert, error)
	GetSensorAlerts(ctx context.Context, sensorID string) ([]models.Alert, error)
}

type SHM struct {
	Db      db.DB
	Sensor  ISensor
	Reading IReading
	Alert   IAlert
}

type ServiceOpts struct {
	Sensor  ISensor
	Reading IReading
	Alert   IAlert
}

func (s *SHM) WithServices(opts ServiceOpts) *SHM {
	if opts.Sensor != nil {
		s.Sensor = opts.Sensor
	}
	if opts.Reading != nil {
		s.Reading = opts.Reading
	}
	if opts.Alert != nil {
		s.Alert = opts.Alert
	}
	return s
}
