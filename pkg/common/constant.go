package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeySHMDBType string = "SHM_DB_TYPE"
	EnvKeySHMDbPath string = "SHM_DB_PATH"

	EnvKeySHMHttpHostPort string = "SHM_HTTP_HOST_PORT"

	EnvKeySHMDefaultRate  string = "SHM_DEFAULT_RATE"
	EnvKeySHMDefaultBurst string = "SHM_DEFAULT_BURST"

	EnvKeySHMRequestTimeoutMs string = "SHM_REQUEST_TIMEOUT_MS"

	LoggerNameSHMCore       string = "shm_core"
	LoggerNameRestfulServer string = "restful_server"

	LoggerFieldSHMCategory   string = "category"
	LoggerCategorySHMReading string = "reading"
	LoggerCategorySHMAlert   string = "alert"
	LoggerCategorySHMSensor  string = "sensor"
)
