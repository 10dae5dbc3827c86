package service

import (
	"errors"
	"fmt"

	"ireporter/internal/models"
	"ireporter/internal/ws"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// NotificationStore is the persistence surface for in-app notifications.
type NotificationStore interface {
	Create(n *models.Notification) error
	ListByUser(userID uint) ([]models.Notification, error)
	MarkRead(id, userID uint) (int64, error)
	MarkAllRead(userID uint) error
	Delete(id, userID uint) (int64, error)
}

type NotificationService struct {
	store NotificationStore
	users UserStore
	hub   *ws.Hub
	log   *logrus.Logger
}

func NewNotificationService(store NotificationStore, users UserStore, hub *ws.Hub, log *logrus.Logger) *NotificationService {
	return &NotificationService{store: store, users: users, hub: hub, log: log}
}

// Notify persists one notification row and pushes it to any live websocket
// connections of the recipient.
func (s *NotificationService) Notify(userID uint, message string) (*models.Notification, error) {
	n := &models.Notification{UserID: userID, Message: message}
	if err := s.store.Create(n); err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.PushToUser(userID, map[string]interface{}{"type": "notification", "notification": n})
	}
	return n, nil
}

// SendToUser delivers a manual notification to one user and fans a copy out
// to every admin. The fanout is best-effort: a failed admin copy does not
// roll back rows already written.
func (s *NotificationService) SendToUser(targetID uint, message string) (*models.Notification, error) {
	if _, err := s.users.GetByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	n, err := s.Notify(targetID, message)
	if err != nil {
		return nil, err
	}
	s.fanoutToAdmins(fmt.Sprintf("Sent to user %d: %s", targetID, message))
	return n, nil
}

// NotifyReportCreated tells every admin a new report arrived.
func (s *NotificationService) NotifyReportCreated(report *models.Report) {
	s.fanoutToAdmins(fmt.Sprintf("New %s report #%d: %s", report.ReportType, report.ID, report.Title))
}

// NotifyStatusChanged tells the report owner about a status transition.
func (s *NotificationService) NotifyStatusChanged(report *models.Report) {
	msg := fmt.Sprintf("Your report #%d is now %s", report.ID, report.Status)
	if _, err := s.Notify(report.UserID, msg); err != nil {
		s.log.WithError(err).WithField("report_id", report.ID).Warn("notify report owner failed")
	}
}

func (s *NotificationService) fanoutToAdmins(message string) {
	admins, err := s.users.ListAdmins()
	if err != nil {
		s.log.WithError(err).Warn("list admins for fanout failed")
		return
	}
	for _, admin := range admins {
		if _, err := s.Notify(admin.ID, message); err != nil {
			s.log.WithError(err).WithField("admin_id", admin.ID).Warn("admin notification copy failed")
		}
	}
}
