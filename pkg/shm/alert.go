package shm

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"structhealth/pkg/common"
	"structhealth/pkg/metrics"
	"structhealth/pkg/models"
)

func (s *SHM) createAlert(ctx context.Context, alert *models.Alert) error {
	logger := common.GetLoggerWith(
		common.LoggerNameSHMCore,
		zap.String(common.LoggerFieldSHMCategory, common.LoggerCategorySHMAlert),
	)

	if alert.Status == "" {
		alert.Status = models.AlertStatusActive
	}

	if err := s.Db.Conn.WithContext(ctx).Create(alert).Error; err != nil {
		return common.ClassifyStorageError(err)
	}

	metrics.AlertsFiredTotal.WithLabelValues(string(alert.Severity)).Inc()
	logger.Info("Alert saved", zap.Reflect("alert", alert))
	return nil
}

func (s *SHM) getAlert(ctx context.Context, alertID uint) (*models.Alert, error) {
	var alert models.Alert
	err := s.Db.Conn.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("alert_notes.timestamp asc, alert_notes.id asc")
		}).
		First(&alert, "id = ?", alertID).Error
	if err != nil {
		return nil, common.ClassifyStorageError(err)
	}
	return &alert, nil
}

// acknowledgeAlert stamps the acknowledger unconditionally: re-acknowledging
// just restamps, and no status check guards the update. One atomic UPDATE,
// never read-modify-write.
func (s *SHM) acknowledgeAlert(ctx context.Context, alertID uint, byUser string) (*models.Alert, error) {
	return s.transition(ctx, alertID, map[string]any{
		"status":          models.AlertStatusAcknowledged,
		"acknowledged_by": byUser,
		"acknowledged_at": time.Now(),
	}, nil)
}

// resolveAlert is callable regardless of current status; an alert does not
// have to be acknowledged first.
func (s *SHM) resolveAlert(ctx context.Context, alertID uint, byUser string) (*models.Alert, error) {
	return s.transition(ctx, alertID, map[string]any{
		"status":      models.AlertStatusResolved,
		"resolved_by": byUser,
		"resolved_at": time.Now(),
	}, nil)
}

// dismissAlert is only valid from active or acknowledged; resolved and
// dismissed are terminal.
func (s *SHM) dismissAlert(ctx context.Context, alertID uint) (*models.Alert, error) {
	return s.transition(ctx, alertID, map[string]any{
		"status": models.AlertStatusDismissed,
	}, []models.AlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged})
}

func (s *SHM) transition(ctx context.Context, alertID uint, updates map[string]any, fromStatuses []models.AlertStatus) (*models.Alert, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameSHMCore,
		zap.String(common.LoggerFieldSHMCategory, common.LoggerCategorySHMAlert),
	)

	q := s.Db.Conn.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", alertID)
	if len(fromStatuses) > 0 {
		q = q.Where("status IN ?", fromStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return nil, common.ClassifyStorageError(res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the alert is missing or its status blocked the transition.
		if _, err := s.getAlert(ctx, alertID); err != nil {
			return nil, err
		}
		return nil, common.ErrValidation
	}

	toStatus := updates["status"].(models.AlertStatus)
	metrics.AlertTransitionsTotal.WithLabelValues(string(toStatus)).Inc()
	logger.Info("Alert transitioned",
		zap.Uint("alert_id", alertID), zap.String("to_status", string(toStatus)))

	return s.getAlert(ctx, alertID)
}

// addNote appends to the alert's note log without touching its status. The
// append is an INSERT into alert_notes, so concurrent notes on the same
// alert all survive.
func (s *SHM) addNote(ctx context.Context, alertID uint, byUser string, text string) (*models.Alert, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.ErrValidation
	}

	conn := s.Db.Conn.WithContext(ctx)

	var exists int64
	if err := conn.Model(&models.Alert{}).Where("id = ?", alertID).Count(&exists).Error; err != nil {
		return nil, common.ClassifyStorageError(err)
	}
	if exists == 0 {
		return nil, common.ErrNotFound
	}

	note := models.AlertNote{
		AlertID:   alertID,
		User:      byUser,
		Note:      text,
		Timestamp: time.Now(),
	}
	if err := conn.Create(&note).Error; err != nil {
		return nil, common.ClassifyStorageError(err)
	}

	return s.getAlert(ctx, alertID)
}

func (s *SHM) getAlerts(ctx context.Context, query models.AlertQuery) ([]models.Alert, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	q := s.Db.Conn.WithContext(ctx).Model(&models.Alert{})
	if query.ProjectID != "" {
		q = q.Where("project_id = ?", query.ProjectID)
	}
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.Severity != "" {
		q = q.Where("severity = ?", query.Severity)
	}

	var alerts []models.Alert
	err := q.Preload("Notes").Order("created_at desc").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, common.ClassifyStorageError(err)
	}
	return alerts, nil
}

func (s *SHM) getSensorAlerts(ctx context.Context, sensorID string) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.Db.Conn.WithContext(ctx).
		Preload("Notes").
		Where("sensor_id = ?", sensorID).
		Order("created_at desc").
		Find(&alerts).Error
	if err != nil {
		return nil, common.ClassifyStorageError(err)
	}
	return alerts, nil
}

type IAlertImpl struct {
	shm *SHM
}

func (ia *IAlertImpl) CreateAlert(ctx context.Context, alert *models.Alert) error {
	return ia.shm.createAlert(ctx, alert)
}

func (ia *IAlertImpl) Acknowledge(ctx context.Context, alertID uint, byUser string) (*models.Alert, error) {
	return ia.shm.acknowledgeAlert(ctx, alertID, byUser)
}

func (ia *IAlertImpl) Resolve(ctx context.Context, alertID uint, byUser string) (*models.Alert, error) {
	return ia.shm.resolveAlert(ctx, alertID, byUser)
}

func (ia *IAlertImpl) Dismiss(ctx context.Context, alertID uint) (*models.Alert, error) {
	return ia.shm.dismissAlert(ctx, alertID)
}

func (ia *IAlertImpl) AddNote(ctx context.Context, alertID uint, byUser string, text string) (*models.Alert, error) {
	return ia.shm.addNote(ctx, alertID, byUser, text)
}

func (ia *IAlertImpl) GetAlerts(ctx context.Context, query models.AlertQuery) ([]models.Alert, error) {
	return ia.shm.getAlerts(ctx, query)
}

func (ia *IAlertImpl) GetSensorAlerts(ctx context.Context, sensorID string) ([]models.Alert, error) {
	return ia.shm.getSensorAlerts(ctx, sensorID)
}

func (s *SHM) GetIAlert() IAlert {
	return &IAlertImpl{shm: s}
}
