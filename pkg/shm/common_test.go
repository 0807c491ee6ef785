package shm

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"

	"go.uber.org/mock/gomock"

	"structhealth/pkg/db"
	"structhealth/pkg/shm/mocks"
)

func GetMockSHMWithMemorySqliteDialector(t *testing.T, useMockSensor, useMockReading, useMockAlert bool) (
	*gomock.Controller,
	*SHM,
	*mocks.MockISensor,
	*mocks.MockIReading,
	*mocks.MockIAlert,
) {
	ctrl := gomock.NewController(t)

	mockISensor := mocks.NewMockISensor(ctrl)
	mockIReading := mocks.NewMockIReading(ctrl)
	mockIAlert := mocks.NewMockIAlert(ctrl)

	dbInstance, err := db.Connect(db.UseMemorySqliteDialector())
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	shmInstance := &SHM{Db: *dbInstance}

	sensorService := shmInstance.GetISensor()
	if useMockSensor {
		sensorService = mockISensor
	}

	readingService := shmInstance.GetIReading()
	if useMockReading {
		readingService = mockIReading
	}

	alertService := shmInstance.GetIAlert()
	if useMockAlert {
		alertService = mockIAlert
	}

	shmInstance.WithServices(ServiceOpts{
		Sensor:  sensorService,
		Reading: readingService,
		Alert:   alertService,
	})

	return ctrl, shmInstance, mockISensor, mockIReading, mockIAlert
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
