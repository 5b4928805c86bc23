package repositories

import (
	"fmt"
	"os"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/models"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

// NotificationRepo stores per-user notifications in Cassandra, clustered
// newest first.
type NotificationRepo struct {
	session *gocql.Session
	logger  *logrus.Logger
}

func NewNotificationRepo(logger *logrus.Logger) (*NotificationRepo, error) {
	db := os.Getenv("CASS_DB")
	if db == "" {
		db = "127.0.0.1"
	}

	cluster := gocql.NewCluster(db)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		logger.Errorf("Event ID: CASS_CONNECT_FAILED, Description: %v", err)
		return nil, err
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS notifications
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		logger.Errorf("Event ID: CASS_KEYSPACE_FAILED, Description: Failed to create keyspace: %v", err)
		return nil, err
	}
	session.Close()

	cluster.Keyspace = "notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logger.Errorf("Event ID: CASS_CONNECT_FAILED, Description: Failed to connect to notifications keyspace: %v", err)
		return nil, err
	}

	logger.Info("Event ID: CASS_CONNECTED, Description: Connected to Cassandra notifications keyspace.")
	return &NotificationRepo{
		session: session,
		logger:  logger,
	}, nil
}

func (nr *NotificationRepo) CloseSession() {
	nr.session.Close()
	nr.logger.Info("Event ID: CASS_SESSION_CLOSED, Description: Cassandra session closed.")
}

// CreateTable creates the notifications table if it does not exist yet.
func (nr *NotificationRepo) CreateTable() {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID,
			user_id TEXT,
			message TEXT,
			created_at TIMESTAMP,
			is_read BOOLEAN,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		nr.logger.Errorf("Event ID: CASS_TABLE_FAILED, Description: Failed to create notifications table: %v", err)
	} else {
		nr.logger.Info("Event ID: CASS_TABLE_READY, Description: Notifications table ready.")
	}
}

func (nr *NotificationRepo) CreateNotification(notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = gocql.TimeUUID().String()
	}

	err := nr.session.Query(
		`INSERT INTO notifications (id, user_id, message, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?)`,
		notification.ID, notification.UserID, notification.Message, notification.CreatedAt, notification.IsRead,
	).Exec()
	if err != nil {
		nr.logger.Errorf("Event ID: NOTIFICATION_CREATE_FAILED, Description: %v", err)
		return err
	}
	return nil
}

func (nr *NotificationRepo) GetNotificationsByUserID(userID string) ([]models.Notification, error) {
	query := `SELECT id, user_id, message, created_at, is_read
			  FROM notifications WHERE user_id = ?`

	iter := nr.session.Query(query, userID).Iter()
	var notifications []models.Notification
	var notification models.Notification

	for iter.Scan(&notification.ID, &notification.UserID,
		&notification.Message, &notification.CreatedAt, &notification.IsRead) {
		notifications = append(notifications, notification)
	}

	if err := iter.Close(); err != nil {
		nr.logger.Errorf("Event ID: NOTIFICATION_FETCH_FAILED, Description: %v", err)
		return nil, err
	}

	return notifications, nil
}

func (nr *NotificationRepo) MarkNotificationAsRead(userID, notificationID, createdAt string) error {
	uuid, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return fmt.Errorf("invalid UUID format: %v", err)
	}

	parsedCreatedAt, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return fmt.Errorf("invalid created_at format: %v", err)
	}

	query := `UPDATE notifications SET is_read = true WHERE user_id = ? AND id = ? AND created_at = ?`
	if err := nr.session.Query(query, userID, uuid, parsedCreatedAt).Exec(); err != nil {
		nr.logger.Errorf("Event ID: NOTIFICATION_UPDATE_FAILED, Description: %v", err)
		return err
	}
	return nil
}

func (nr *NotificationRepo) DeleteNotification(userID, notificationID, createdAt string) error {
	uuid, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return fmt.Errorf("invalid UUID format: %v", err)
	}

	parsedCreatedAt, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return fmt.Errorf("invalid created_at format: %v", err)
	}

	query := `DELETE FROM notifications WHERE user_id = ? AND id = ? AND created_at = ?`
	if err := nr.session.Query(query, userID, uuid, parsedCreatedAt).Exec(); err != nil {
		nr.logger.Errorf("Event ID: NOTIFICATION_DELETE_FAILED, Description: %v", err)
		return err
	}
	return nil
}
