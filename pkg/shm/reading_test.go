package shm

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zapcore"

	"structhealth/pkg/common"
	"structhealth/pkg/models"
	_ "structhealth/pkg/testing"
)

func seedSensor(t *testing.T, shmObj *SHM, sensor models.Sensor) string {
	t.Helper()

	sensorID := uuid.NewString()
	if sensor.SensorName == "" {
		sensor.SensorName = "Pier-3 Tilt"
	}
	err := shmObj.Sensor.UpsertSensor(context.Background(), sensorID, &sensor)
	require.NoError(t, err)
	return sensorID
}

func TestIngest_CreatesCriticalAlert(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{
		CriticalMax: common.Float64Ptr(100),
	})

	reading, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 150,
		Unit:  "mm",
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, reading.Value)

	// Current-reading snapshot refreshed on the sensor.
	sensor, err := shmObj.Sensor.GetSensor(context.Background(), sensorID)
	require.NoError(t, err)
	require.NotNil(t, sensor.CurrentValue)
	assert.Equal(t, 150.0, *sensor.CurrentValue)
	assert.Equal(t, "mm", sensor.CurrentUnit)

	alerts, err := shmObj.Alert.GetSensorAlerts(context.Background(), sensorID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTypeThresholdCritical, alerts[0].AlertType)
	assert.Equal(t, models.AlertSeverityCritical, alerts[0].Severity)
	assert.Equal(t, models.AlertStatusActive, alerts[0].Status)
	require.NotNil(t, alerts[0].ThresholdMax)
	assert.Equal(t, 100.0, *alerts[0].ThresholdMax)
	assert.Nil(t, alerts[0].ThresholdMin)
	require.NotNil(t, alerts[0].Value)
	assert.Equal(t, 150.0, *alerts[0].Value)
}

func TestIngest_CriticalSuppressesWarning(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{
		WarningMax:  common.Float64Ptr(50),
		CriticalMax: common.Float64Ptr(100),
	})

	_, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 120,
		Unit:  "mm",
	})
	require.NoError(t, err)

	alerts, err := shmObj.Alert.GetSensorAlerts(context.Background(), sensorID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertSeverityCritical, alerts[0].Severity)
}

func TestIngest_NoThresholdsNoAlert(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{})

	reading, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 123456,
		Unit:  "mm",
	})
	require.NoError(t, err)
	assert.NotZero(t, reading.ID)

	alerts, err := shmObj.Alert.GetSensorAlerts(context.Background(), sensorID)
	require.NoError(t, err)
	assert.Len(t, alerts, 0)
}

func TestIngest_UnknownSensor(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	_, err := shmObj.Reading.Ingest(context.Background(), uuid.NewString(), &models.SensorReading{
		Value: 1,
		Unit:  "mm",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestIngest_Defaults(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{Unit: "mm"})

	before := time.Now()
	reading, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReadingQualityGood, reading.Quality)
	assert.Equal(t, "mm", reading.Unit)
	assert.False(t, reading.Timestamp.Before(before))
}

func TestIngest_AlertFailureDoesNotFailIngest(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, mockIAlert := GetMockSHMWithMemorySqliteDialector(t, false, false, true)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{
		CriticalMax: common.Float64Ptr(100),
	})

	mockIAlert.
		EXPECT().
		CreateAlert(gomock.Any(), gomock.Any()).
		Return(errors.New("alerts collection unavailable")).
		Times(1)

	// The reading is the authoritative record; a failed alert write is
	// logged and swallowed.
	reading, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 150,
		Unit:  "mm",
	})
	require.NoError(t, err)
	assert.NotZero(t, reading.ID)

	var count int64
	err = shmObj.Db.Conn.Model(&models.SensorReading{}).Where("sensor_id = ?", sensorID).Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIngest_LastWriteWinsSnapshot(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{})

	newer := time.Now()
	older := newer.Add(-time.Hour)

	_, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 10, Unit: "mm", Timestamp: newer,
	})
	require.NoError(t, err)

	// An out-of-order backfill still overwrites the snapshot.
	_, err = shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 7, Unit: "mm", Timestamp: older,
	})
	require.NoError(t, err)

	sensor, err := shmObj.Sensor.GetSensor(context.Background(), sensorID)
	require.NoError(t, err)
	require.NotNil(t, sensor.CurrentValue)
	assert.Equal(t, 7.0, *sensor.CurrentValue)
}

func TestGetSensorReadings(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{})

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		_, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
			Value:     float64(i),
			Unit:      "mm",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	readings, err := shmObj.Reading.GetSensorReadings(context.Background(), sensorID, models.ReadingQuery{Limit: 3})
	require.NoError(t, err)
	require.Len(t, readings, 3)
	// Newest first.
	assert.Equal(t, 4.0, readings[0].Value)
	assert.Equal(t, 2.0, readings[2].Value)

	windowed, err := shmObj.Reading.GetSensorReadings(context.Background(), sensorID, models.ReadingQuery{
		Since: base.Add(1 * time.Minute),
		Until: base.Add(3 * time.Minute),
	})
	require.NoError(t, err)
	assert.Len(t, windowed, 3)
}

func TestIngest_WithLog(t *testing.T) {
	var buf = &bytes.Buffer{}
	common.SetTestCaptureLogger(buf, zapcore.InfoLevel)

	ctrl, shmObj, _, _, _ := GetMockSHMWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	sensorID := seedSensor(t, shmObj, models.Sensor{
		CriticalMax: common.Float64Ptr(100),
	})

	_, err := shmObj.Reading.Ingest(context.Background(), sensorID, &models.SensorReading{
		Value: 150,
		Unit:  "mm",
	})
	require.NoError(t, err)

	logs := ParseLogs(buf)

	{
		found := false
		for _, log := range logs {
			lobj := log.(map[string]any)
			if lobj["category"] == "reading" &&
				lobj["logger"] == "shm_core" &&
				lobj["msg"] == "Threshold breached" &&
				lobj["draft"].(map[string]any)["Severity"] == "critical" {
				found = true
			}
		}
		assert.True(t, found, "threshold breach log not found")
	}

	{
		found := false
		for _, log := range logs {
			lobj := log.(map[string]any)
			if lobj["category"] == "alert" &&
				lobj["logger"] == "shm_core" &&
				lobj["msg"] == "Alert saved" &&
				lobj["alert"].(map[string]any)["SensorID"] == sensorID {
				found = true
			}
		}
		assert.True(t, found, "alert saved log not found")
	}
}
