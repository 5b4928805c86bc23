package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/logging"
	"github.com/hasnain-a7/nextProjectFlow/models"
	"github.com/hasnain-a7/nextProjectFlow/store"
)

// DeadlineReminderWindowDays is how far ahead the reminder sweep looks
// for tasks coming due.
const DeadlineReminderWindowDays = 2

// NotificationStore is the persistence contract for user notifications,
// implemented by repositories.NotificationRepo.
type NotificationStore interface {
	CreateNotification(notification *models.Notification) error
	GetNotificationsByUserID(userID string) ([]models.Notification, error)
	MarkNotificationAsRead(userID, notificationID, createdAt string) error
	DeleteNotification(userID, notificationID, createdAt string) error
}

type NotificationService struct {
	repo NotificationStore
}

func NewNotificationService(repo NotificationStore) *NotificationService {
	return &NotificationService{
		repo: repo,
	}
}

func (ns *NotificationService) CreateNotification(userID, message string) error {
	if userID == "" || message == "" {
		return fmt.Errorf("userID and message are required")
	}
	notification := models.Notification{
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now(),
		IsRead:    false,
	}
	return ns.repo.CreateNotification(&notification)
}

// NotifyProjectAssignment records one notification per affected user
// after a project's assigned set changed. Failures are logged, a missed
// notification never fails the update that triggered it.
func (ns *NotificationService) NotifyProjectAssignment(projectTitle string, assigned, removed []string) {
	for _, userID := range assigned {
		message := fmt.Sprintf("You have been added to the project '%s'.", projectTitle)
		if err := ns.CreateNotification(userID, message); err != nil {
			logging.Logger.Errorf("Event ID: NOTIFY_FAILED, Description: Failed to notify user %s: %v", userID, err)
		}
	}
	for _, userID := range removed {
		message := fmt.Sprintf("You have been removed from the project '%s'.", projectTitle)
		if err := ns.CreateNotification(userID, message); err != nil {
			logging.Logger.Errorf("Event ID: NOTIFY_FAILED, Description: Failed to notify user %s: %v", userID, err)
		}
	}
}

// RemindUpcomingDeadlines notifies every member of a project about its
// tasks coming due within the reminder window. Run daily.
func (ns *NotificationService) RemindUpcomingDeadlines(ctx context.Context, documentStore store.DocumentStore) error {
	now := time.Now()
	from := now.Format("2006-01-02")
	to := now.AddDate(0, 0, DeadlineReminderWindowDays).Format("2006-01-02")

	tasks, err := documentStore.TasksDueBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch due tasks: %v", err)
	}

	members := map[string][]string{}
	titles := map[string]string{}
	reminded := 0
	for _, task := range tasks {
		recipients, ok := members[task.ProjectID]
		if !ok {
			project, err := documentStore.ProjectByID(ctx, task.ProjectID)
			if err != nil {
				logging.Logger.Errorf("Event ID: REMINDER_FAILED, Description: Failed to fetch project %s for task %s: %v", task.ProjectID, task.ID.Hex(), err)
				continue
			}
			recipients = append([]string{project.UserID}, project.AssignedUsers...)
			members[task.ProjectID] = recipients
			titles[task.ProjectID] = project.Title
		}

		message := fmt.Sprintf("Task '%s' in project '%s' is due on %s.", task.Title, titles[task.ProjectID], task.DueDate)
		for _, userID := range recipients {
			if err := ns.CreateNotification(userID, message); err != nil {
				logging.Logger.Errorf("Event ID: REMINDER_FAILED, Description: Failed to remind user %s about task %s: %v", userID, task.ID.Hex(), err)
				continue
			}
			reminded++
		}
	}

	if reminded > 0 {
		logging.Logger.Infof("Event ID: REMINDERS_SENT, Description: Sent %d deadline reminders for %d due tasks", reminded, len(tasks))
	}
	return nil
}

func (ns *NotificationService) GetNotificationsByUserID(userID string) ([]models.Notification, error) {
	return ns.repo.GetNotificationsByUserID(userID)
}

func (ns *NotificationService) MarkNotificationAsRead(userID, notificationID, createdAt string) error {
	if userID == "" || notificationID == "" || createdAt == "" {
		return fmt.Errorf("userID, notificationID, and createdAt are required")
	}
	return ns.repo.MarkNotificationAsRead(userID, notificationID, createdAt)
}

func (ns *NotificationService) DeleteNotification(userID, notificationID, createdAt string) error {
	return ns.repo.DeleteNotification(userID, notificationID, createdAt)
}
