package shm

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"structhealth/pkg/common"
	"structhealth/pkg/models"
	_ "structhealth/pkg/testing"
)

func TestUpsertSensor(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := uuid.NewString()

	input := &models.Sensor{
		SensorName:  "North Tower Strain",
		ProjectID:   uuid.NewString(),
		SensorType:  models.SensorTypeStrainGauge,
		Unit:        "µε",
		WarningMax:  common.Float64Ptr(50),
		CriticalMax: common.Float64Ptr(100),
	}
	err := shmObj.Sensor.UpsertSensor(context.Background(), sensorID, input)
	require.NoError(t, err)

	saved, err := shmObj.Sensor.GetSensor(context.Background(), sensorID)
	require.NoError(t, err)
	assert.Equal(t, "North Tower Strain", saved.SensorName)
	assert.Equal(t, models.SensorStatusActive, saved.Status)

	thresholds := saved.Thresholds()
	require.NotNil(t, thresholds.Warning)
	require.NotNil(t, thresholds.Critical)
	assert.Equal(t, 50.0, *thresholds.Warning.Max)
	assert.Nil(t, thresholds.Warning.Min)
	assert.Equal(t, 100.0, *thresholds.Critical.Max)

	// Reconfigure: drop the warning tier, tighten critical.
	updated := &models.Sensor{
		SensorName:  "North Tower Strain",
		ProjectID:   input.ProjectID,
		SensorType:  models.SensorTypeStrainGauge,
		Unit:        "µε",
		CriticalMax: common.Float64Ptr(80),
	}
	err = shmObj.Sensor.UpsertSensor(context.Background(), sensorID, updated)
	require.NoError(t, err)

	saved, err = shmObj.Sensor.GetSensor(context.Background(), sensorID)
	require.NoError(t, err)
	thresholds = saved.Thresholds()
	assert.Nil(t, thresholds.Warning)
	require.NotNil(t, thresholds.Critical)
	assert.Equal(t, 80.0, *thresholds.Critical.Max)
}

func TestUpsertSensor_KeepsSnapshot(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{})

	_, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 42, Unit: "mm",
	})
	require.NoError(t, err)

	// A threshold reconfiguration must not wipe the current-reading cache.
	err = shmObj.Sensor.UpsertSensor(context.Background(), sensorID, &models.Sensor{
		SensorName: "Pier-3 Tilt",
		WarningMax: common.Float64Ptr(100),
	})
	require.NoError(t, err)

	saved, err := shmObj.Sensor.GetSensor(context.Background(), sensorID)
	require.NoError(t, err)
	require.NotNil(t, saved.CurrentValue)
	assert.Equal(t, 42.0, *saved.CurrentValue)
}

func TestGetSensor_NotFound(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	_, err := shmObj.Sensor.GetSensor(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpsertSensor_WithLog(t *testing.T) {
	var buf = &bytes.Buffer{}
	common.SetTestCaptureLogger(buf, zapcore.InfoLevel)

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := uuid.NewString()

	err := shmObj.Sensor.UpsertSensor(context.Background(), sensorID, &models.Sensor{
		SensorName: "Pier-3 Tilt",
	})
	require.NoError(t, err)

	logs := ParseLogs(buf)

	found := false
	for _, log := range logs {
		lobj := log.(map[string]any)
		if lobj["category"] == "sensor" &&
			lobj["logger"] == "shm_core" &&
			lobj["msg"] == "Upserted sensor config" &&
			lobj["sensor"].(map[string]any)["SensorID"] == sensorID {
			found = true
		}
	}
	assert.True(t, found, "upsert log not found")
}
