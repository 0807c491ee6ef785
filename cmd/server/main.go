package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"structhealth/pkg/common"
	"structhealth/pkg/db"
	shmHttp "structhealth/pkg/http"
	"structhealth/pkg/shm"
)

func main() {
	var err error

	err = godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	var dbInstance *db.DB
	shmDbType := os.Getenv(common.EnvKeySHMDBType)
	switch shmDbType {
	case "file":
		dbInstance, err = db.Connect(db.UseSqliteDialector())
	case "memory":
		dbInstance, err = db.Connect(db.UseMemorySqliteDialector())
	default:
		log.Fatal("Unknown SHM_DB_TYPE: " + shmDbType)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbInstance.Close()

	httpHostPort := strings.TrimSpace(os.Getenv(common.EnvKeySHMHttpHostPort))

	var defaultRate float64
	var defaultBurst int64

	if defaultRate, err = strconv.ParseFloat(os.Getenv(common.EnvKeySHMDefaultRate), 64); err != nil {
		log.Fatal("Invalid SHM_DEFAULT_RATE, or not set in .env, should be a float64 value")
	}

	if defaultBurst, err = strconv.ParseInt(os.Getenv(common.EnvKeySHMDefaultBurst), 10, 64); err != nil {
		log.Fatal("Invalid SHM_DEFAULT_BURST, or not set in .env, should be an int value")
	}

	requestTimeout := shmHttp.DefaultRequestTimeout
	if timeoutMs := os.Getenv(common.EnvKeySHMRequestTimeoutMs); timeoutMs != "" {
		ms, err := strconv.ParseInt(timeoutMs, 10, 64)
		if err != nil {
			log.Fatal("Invalid SHM_REQUEST_TIMEOUT_MS, should be an int value")
		}
		requestTimeout = time.Duration(ms) * time.Millisecond
	}

	if !common.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := common.GetLogger()

	shmCore := shm.SHM{
		Db: *dbInstance,
	}
	shmCore.WithServices(shm.ServiceOpts{
		Sensor:  shmCore.GetISensor(),
		Reading: shmCore.GetIReading(),
		Alert:   shmCore.GetIAlert(),
	})

	if httpHostPort == "" {
		// fallback to default http port
		httpHostPort = ":1080"
	}

	rs := &shmHttp.RestfulServer{
		Server:           gin.Default(),
		Shm:              &shmCore,
		RateLimiterStore: shm.NewRateLimiterStore(rate.Limit(defaultRate), int(defaultBurst)),
		RequestTimeout:   requestTimeout,
	}
	rs.Setup()

	logger.Info("http server created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", defaultRate, defaultBurst)))

	logger.Info("Starting HTTP server on: " + httpHostPort)
	if err := rs.Server.Run(httpHostPort); err != nil {
		log.Fatalf("http server failed to serve: %v", err)
	}
}
