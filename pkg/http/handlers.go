package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"

	"structhealth/pkg/common"
	"structhealth/pkg/models"
)

func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (rs *RestfulServer) fail(c *gin.Context, err error) {
	c.JSON(statusFromError(err), gin.H{"error": err.Error()})
}

type ThresholdBandRequest struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type ThresholdsRequest struct {
	Warning  ThresholdBandRequest `json:"warning"`
	Critical ThresholdBandRequest `json:"critical"`
}

type SensorRequest struct {
	SensorName string            `json:"sensorName"`
	ProjectID  string            `json:"projectId"`
	SensorType string            `json:"sensorType"`
	Status     string            `json:"status"`
	Unit       string            `json:"unit"`
	Thresholds ThresholdsRequest `json:"thresholds"`
}

var sensorRequestSchema = z.Struct(z.Shape{
	"SensorName": z.String().Required(),
	"ProjectID":  z.String(),
	"SensorType": z.String(),
	"Status":     z.String(),
	"Unit":       z.String(),
})

var validSensorTypes = map[models.SensorType]bool{
	models.SensorTypeAccelerometer: true,
	models.SensorTypeStrainGauge:   true,
	models.SensorTypeDisplacement:  true,
	models.SensorTypeTemperature:   true,
	models.SensorTypeHumidity:      true,
	models.SensorTypeVibration:     true,
	models.SensorTypeTilt:          true,
	models.SensorTypeCrack:         true,
	models.SensorTypeWindSpeed:     true,
	models.SensorTypeWindDirection: true,
	models.SensorTypeOther:         true,
}

var validSensorStatuses = map[models.SensorStatus]bool{
	models.SensorStatusActive:      true,
	models.SensorStatusInactive:    true,
	models.SensorStatusMaintenance: true,
	models.SensorStatusFaulty:      true,
}

var validQualities = map[models.ReadingQuality]bool{
	models.ReadingQualityGood:    true,
	models.ReadingQualityFair:    true,
	models.ReadingQualityPoor:    true,
	models.ReadingQualityInvalid: true,
}

func (rs *RestfulServer) PutSensor(c *gin.Context) {
	sensorID := c.Param("sensor_id")

	// The optional threshold bounds sit two structs deep, so the body goes
	// through the JSON binder and the schema validates the filled struct.
	var req SensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := sensorRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	if req.SensorType != "" && !validSensorTypes[models.SensorType(req.SensorType)] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sensorType"})
		return
	}
	if req.Status != "" && !validSensorStatuses[models.SensorStatus(req.Status)] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	ctx, cancel := rs.opContext(c)
	defer cancel()

	sensor := models.Sensor{
		SensorName:  req.SensorName,
		ProjectID:   req.ProjectID,
		SensorType:  models.SensorType(req.SensorType),
		Status:      models.SensorStatus(req.Status),
		Unit:        req.Unit,
		WarningMin:  req.Thresholds.Warning.Min,
		WarningMax:  req.Thresholds.Warning.Max,
		CriticalMin: req.Thresholds.Critical.Min,
		CriticalMax: req.Thresholds.Critical.Max,
	}

	if err := rs.Shm.Sensor.UpsertSensor(ctx, sensorID, &sensor); err != nil {
		rs.fail(c, err)
		return
	}

	c.Status(http.StatusOK)
}

type ReadingMetadataRequest struct {
	Temperature    *float64 `json:"temperature"`
	Humidity       *float64 `json:"humidity"`
	BatteryLevel   *float64 `json:"batteryLevel"`
	SignalStrength *float64 `json:"signalStrength"`
}

type ReadingRequest struct {
	Value         *float64               `json:"value"`
	Unit          string                 `json:"unit"`
	Timestamp     time.Time              `json:"timestamp"`
	Quality       string                 `json:"quality"`
	AnomalyReason string                 `json:"anomalyReason"`
	Metadata      ReadingMetadataRequest `json:"metadata"`
}

var readingRequestSchema = z.Struct(z.Shape{
	"Unit":          z.String().Required(),
	"Quality":       z.String(),
	"AnomalyReason": z.String(),
})

func (rs *RestfulServer) PostReading(c *gin.Context) {
	sensorID := c.Param("sensor_id")

	if !rs.CheckSensorLimiter(sensorID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	// Same shape problem as the sensor request: the optional metadata
	// pointers live in a nested object, so the JSON binder decodes the body
	// and the schema validates the filled struct. Value is a pointer so a
	// reading of exactly 0 is distinguishable from an absent one.
	var req ReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := readingRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}
	if req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	if req.Quality != "" && !validQualities[models.ReadingQuality(req.Quality)] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown quality"})
		return
	}

	ctx, cancel := rs.opContext(c)
	defer cancel()

	input := models.SensorReading{
		Value:              *req.Value,
		Unit:               req.Unit,
		Timestamp:          req.Timestamp,
		Quality:            models.ReadingQuality(req.Quality),
		IsAnomaly:          req.AnomalyReason != "",
		AnomalyReason:      req.AnomalyReason,
		MetaTemperature:    req.Metadata.Temperature,
		MetaHumidity:       req.Metadata.Humidity,
		MetaBatteryLevel:   req.Metadata.BatteryLevel,
		MetaSignalStrength: req.Metadata.SignalStrength,
	}

	reading, err := rs.Shm.Reading.Ingest(ctx, sensorID, &input)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, reading)
}

func (rs *RestfulServer) GetReadings(c *gin.Context) {
	sensorID := c.Param("sensor_id")

	var query models.ReadingQuery
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		query.Limit = limit
	}
	if sinceStr := c.Query("startDate"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate"})
			return
		}
		query.Since = since
	}
	if untilStr := c.Query("endDate"); untilStr != "" {
		until, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate"})
			return
		}
		query.Until = until
	}

	ctx, cancel := rs.opContext(c)
	defer cancel()

	readings, err := rs.Shm.Reading.GetSensorReadings(ctx, sensorID, query)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, readings)
}

func (rs *RestfulServer) GetSensorAlerts(c *gin.Context) {
	sensorID := c.Param("sensor_id")

	ctx, cancel := rs.opContext(c)
	defer cancel()

	alerts, err := rs.Shm.Alert.GetSensorAlerts(ctx, sensorID)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func (rs *RestfulServer) GetAlerts(c *gin.Context) {
	query := models.AlertQuery{
		ProjectID: c.Query("projectId"),
		Status:    models.AlertStatus(c.Query("status")),
		Severity:  models.AlertSeverity(c.Query("severity")),
	}

	ctx, cancel := rs.opContext(c)
	defer cancel()

	alerts, err := rs.Shm.Alert.GetAlerts(ctx, query)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func alertIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("alert_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return 0, false
	}
	return uint(id), true
}

func (rs *RestfulServer) AcknowledgeAlert(c *gin.Context) {
	alertID, ok := alertIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := rs.opContext(c)
	defer cancel()

	alert, err := rs.Shm.Alert.Acknowledge(ctx, alertID, c.GetString("user_id"))
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (rs *RestfulServer) ResolveAlert(c *gin.Context) {
	alertID, ok := alertIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := rs.opContext(c)
	defer cancel()

	alert, err := rs.Shm.Alert.Resolve(ctx, alertID, c.GetString("user_id"))
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (rs *RestfulServer) DismissAlert(c *gin.Context) {
	alertID, ok := alertIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := rs.opContext(c)
	defer cancel()

	alert, err := rs.Shm.Alert.Dismiss(ctx, alertID)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

type NoteRequest struct {
	Note string `json:"note"`
}

var noteRequestSchema = z.Struct(z.Shape{
	"Note": z.String().Required(),
})

func (rs *RestfulServer) PostNote(c *gin.Context) {
	alertID, ok := alertIDParam(c)
	if !ok {
		return
	}

	var req NoteRequest
	if err := noteRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	ctx, cancel := rs.opContext(c)
	defer cancel()

	alert, err := rs.Shm.Alert.AddNote(ctx, alertID, c.GetString("user_id"), req.Note)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().Required(),
	"burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	sensorID := c.Param("sensor_id")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	rs.SetLimiter(sensorID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
