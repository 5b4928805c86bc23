package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements DocumentStore on top of MongoDB collections.
type MongoStore struct {
	ProjectsCollection *mongo.Collection
	TasksCollection    *mongo.Collection
	UsersCollection    *mongo.Collection
	ChatCollection     *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		ProjectsCollection: db.Collection("projects"),
		TasksCollection:    db.Collection("tasks"),
		UsersCollection:    db.Collection("users"),
		ChatCollection:     db.Collection("chat"),
	}
}

func (s *MongoStore) ProjectsByOwner(ctx context.Context, userID string) ([]models.Project, error) {
	return s.findProjects(ctx, bson.M{"userId": userID})
}

func (s *MongoStore) ProjectsByAssignee(ctx context.Context, userID string) ([]models.Project, error) {
	return s.findProjects(ctx, bson.M{"assignedUsers": userID})
}

func (s *MongoStore) findProjects(ctx context.Context, filter bson.M) ([]models.Project, error) {
	cursor, err := s.ProjectsCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %v", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err = cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

func (s *MongoStore) ProjectByID(ctx context.Context, projectID string) (*models.Project, error) {
	objectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project ID format: %v", err)
	}
	var project models.Project
	err = s.ProjectsCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	return &project, nil
}

func (s *MongoStore) InsertProject(ctx context.Context, project *models.Project) (string, error) {
	result, err := s.ProjectsCollection.InsertOne(ctx, project)
	if err != nil {
		return "", fmt.Errorf("failed to create project: %v", err)
	}
	project.ID = result.InsertedID.(primitive.ObjectID)
	return project.ID.Hex(), nil
}

func (s *MongoStore) UpdateProject(ctx context.Context, projectID string, fields ProjectFields, lastSeen time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return fmt.Errorf("invalid project ID format: %v", err)
	}

	filter := bson.M{"_id": objectID}
	if !lastSeen.IsZero() {
		filter["updatedAt"] = lastSeen
	}
	update := bson.M{"$set": bson.M{
		"title":        fields.Title,
		"description":  fields.Description,
		"category":     fields.Category,
		"attachments":  fields.Attachments,
		"dueDate":      fields.DueDate,
		"status":       fields.Status,
		"projectEmoji": fields.ProjectEmoji,
		"updatedAt":    fields.UpdatedAt,
	}}

	result, err := s.ProjectsCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update project: %v", err)
	}
	if result.MatchedCount == 0 {
		return s.missOrConflict(ctx, s.ProjectsCollection, objectID)
	}
	return nil
}

func (s *MongoStore) AddAssignedUsers(ctx context.Context, projectID string, userIDs []string) error {
	objectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return fmt.Errorf("invalid project ID format: %v", err)
	}
	update := bson.M{"$addToSet": bson.M{"assignedUsers": bson.M{"$each": userIDs}}}
	_, err = s.ProjectsCollection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to add assigned users: %v", err)
	}
	return nil
}

func (s *MongoStore) RemoveAssignedUsers(ctx context.Context, projectID string, userIDs []string) error {
	objectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return fmt.Errorf("invalid project ID format: %v", err)
	}
	update := bson.M{"$pull": bson.M{"assignedUsers": bson.M{"$in": userIDs}}}
	_, err = s.ProjectsCollection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove assigned users: %v", err)
	}
	return nil
}

func (s *MongoStore) DeleteProject(ctx context.Context, projectID string) error {
	objectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return fmt.Errorf("invalid project ID format: %v", err)
	}
	result, err := s.ProjectsCollection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete project: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) TasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	cursor, err := s.TasksCollection.Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

func (s *MongoStore) TasksDueBetween(ctx context.Context, from, to string) ([]models.Task, error) {
	cursor, err := s.TasksCollection.Find(ctx, bson.M{"dueDate": bson.M{"$gte": from, "$lte": to}})
	if err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode due tasks: %v", err)
	}
	return tasks, nil
}

func (s *MongoStore) InsertTask(ctx context.Context, task *models.Task) (string, error) {
	result, err := s.TasksCollection.InsertOne(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %v", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)
	return task.ID.Hex(), nil
}

func (s *MongoStore) UpdateTask(ctx context.Context, projectID, taskID string, fields TaskFields, lastSeen time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return fmt.Errorf("invalid task ID format: %v", err)
	}

	filter := bson.M{"_id": objectID, "projectId": projectID}
	if !lastSeen.IsZero() {
		filter["updatedAt"] = lastSeen
	}
	update := bson.M{"$set": bson.M{
		"title":       fields.Title,
		"todo":        fields.Todo,
		"status":      fields.Status,
		"attachments": fields.Attachments,
		"dueDate":     fields.DueDate,
		"todoEmoji":   fields.TodoEmoji,
		"updatedAt":   fields.UpdatedAt,
	}}

	result, err := s.TasksCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		return s.missOrConflict(ctx, s.TasksCollection, objectID)
	}
	return nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, projectID, taskID string) error {
	objectID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return fmt.Errorf("invalid task ID format: %v", err)
	}
	result, err := s.TasksCollection.DeleteOne(ctx, bson.M{"_id": objectID, "projectId": projectID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteTasksByProject(ctx context.Context, projectID string) error {
	_, err := s.TasksCollection.DeleteMany(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return fmt.Errorf("failed to delete tasks for project: %v", err)
	}
	return nil
}

func (s *MongoStore) UserByID(ctx context.Context, userID string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format: %v", err)
	}
	var user models.User
	err = s.UsersCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %v", err)
	}
	return &user, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, userID string, fields UserFields) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user ID format: %v", err)
	}
	update := bson.M{"$set": bson.M{
		"fullname":     fields.FullName,
		"location":     fields.Location,
		"email":        fields.Email,
		"occupation":   fields.Occupation,
		"organization": fields.Organization,
		"isActive":     fields.IsActive,
		"bio":          fields.Bio,
		"avatar":       fields.Avatar,
		"coverImage":   fields.CoverImage,
		"updatedAt":    fields.UpdatedAt,
	}}
	result, err := s.UsersCollection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, userID string) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user ID format: %v", err)
	}
	result, err := s.UsersCollection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) InsertChatMessage(ctx context.Context, msg *models.ChatMessage) (string, error) {
	result, err := s.ChatCollection.InsertOne(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to store chat message: %v", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg.ID.Hex(), nil
}

func (s *MongoStore) ChatMessagesBefore(ctx context.Context, projectID string, before time.Time, limit int) ([]models.ChatMessage, error) {
	filter := bson.M{"projectId": projectID}
	if !before.IsZero() {
		filter["createdAt"] = bson.M{"$lt": before}
	}
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(int64(limit))

	cursor, err := s.ChatCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode chat messages: %v", err)
	}
	return messages, nil
}

func (s *MongoStore) DeleteChatByProject(ctx context.Context, projectID string) error {
	_, err := s.ChatCollection.DeleteMany(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return fmt.Errorf("failed to delete chat for project: %v", err)
	}
	return nil
}

// missOrConflict distinguishes a conditional-update conflict from a
// missing document after MatchedCount came back zero.
func (s *MongoStore) missOrConflict(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID) error {
	count, err := collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check document after update miss: %v", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}
