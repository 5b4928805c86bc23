package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/logging"
	"github.com/hasnain-a7/nextProjectFlow/models"
	"github.com/hasnain-a7/nextProjectFlow/store"
	"github.com/hasnain-a7/nextProjectFlow/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account lifecycle: registration with email
// verification, login, password changes and account deletion with its
// project cascade.
type UserService struct {
	UserCollection *mongo.Collection
	Store          store.DocumentStore
	BlackList      map[string]bool
}

func NewUserService(userCollection *mongo.Collection, documentStore store.DocumentStore, blackList map[string]bool) *UserService {
	return &UserService{
		UserCollection: userCollection,
		Store:          documentStore,
		BlackList:      blackList,
	}
}

// RegisterUser stores a new inactive account and emails its verification
// code.
func (s *UserService) RegisterUser(user models.User) error {
	var existingUser models.User
	if err := s.UserCollection.FindOne(context.Background(), bson.M{"email": user.Email}).Decode(&existingUser); err == nil {
		return fmt.Errorf("user with email already exists")
	}

	user.Email = html.EscapeString(user.Email)
	user.FullName = html.EscapeString(user.FullName)
	user.Location = html.EscapeString(user.Location)
	user.Occupation = html.EscapeString(user.Occupation)
	user.Organization = html.EscapeString(user.Organization)
	user.Bio = html.EscapeString(user.Bio)

	if err := s.ValidatePassword(user.Password); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = string(hashedPassword)

	user.VerificationCode = utils.GenerateVerificationCode()
	user.VerificationExpiry = time.Now().Add(5 * time.Minute)
	user.IsActive = false
	user.CreatedAt = time.Now()

	if _, err := s.UserCollection.InsertOne(context.Background(), user); err != nil {
		return fmt.Errorf("failed to save user: %v", err)
	}

	subject := "Your Verification Code"
	body := fmt.Sprintf("Your verification code is %s. Please enter it within 5 minutes.", user.VerificationCode)
	if err := utils.SendEmail(user.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: Verification code sent to %s", user.Email)
	return nil
}

// ConfirmEmail activates the account when the submitted code matches and
// has not expired.
func (s *UserService) ConfirmEmail(email, code string) error {
	var user models.User
	if err := s.UserCollection.FindOne(context.Background(), bson.M{"email": email}).Decode(&user); err != nil {
		return fmt.Errorf("user not found")
	}

	if user.VerificationCode != code {
		return fmt.Errorf("invalid verification code")
	}
	if time.Now().After(user.VerificationExpiry) {
		return fmt.Errorf("verification code has expired")
	}

	filter := bson.M{"email": email}
	update := bson.M{
		"$set":   bson.M{"isActive": true},
		"$unset": bson.M{"verificationCode": "", "verificationExpiry": ""},
	}
	if _, err := s.UserCollection.UpdateOne(context.Background(), filter, update); err != nil {
		return fmt.Errorf("failed to activate user: %v", err)
	}
	return nil
}

// LoginUser checks the credentials and returns the user together with a
// signed session token.
func (s *UserService) LoginUser(email, password string) (models.User, string, error) {
	var user models.User
	err := s.UserCollection.FindOne(context.Background(), bson.M{"email": email}).Decode(&user)
	if err != nil {
		return models.User{}, "", errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, "", errors.New("invalid password")
	}

	if !user.IsActive {
		return models.User{}, "", errors.New("user not active")
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email)
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to generate token: %v", err)
	}

	return user, token, nil
}

// ValidatePassword enforces the password policy: length, character
// classes and the common-password blacklist.
func (s *UserService) ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	hasUppercase := false
	for _, char := range password {
		if char >= 'A' && char <= 'Z' {
			hasUppercase = true
			break
		}
	}
	if !hasUppercase {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	hasDigit := false
	for _, char := range password {
		if char >= '0' && char <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one number")
	}

	specialChars := "!@#$%^&*.,"
	hasSpecial := false
	for _, char := range password {
		if strings.ContainsRune(specialChars, char) {
			hasSpecial = true
			break
		}
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	if s.BlackList[password] {
		return fmt.Errorf("password is too common. Please choose a stronger one")
	}

	return nil
}

// ChangePassword verifies the old password before hashing and storing the
// new one.
func (s *UserService) ChangePassword(userID, oldPassword, newPassword string) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user ID format")
	}

	var user models.User
	if err := s.UserCollection.FindOne(context.Background(), bson.M{"_id": objectID}).Decode(&user); err != nil {
		return fmt.Errorf("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return errors.New("old password is incorrect")
	}

	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	update := bson.M{"$set": bson.M{"password": string(hashedPassword)}}
	if _, err := s.UserCollection.UpdateOne(context.Background(), bson.M{"_id": objectID}, update); err != nil {
		return fmt.Errorf("failed to update password: %v", err)
	}

	logging.Logger.Infof("Event ID: PASSWORD_CHANGED, Description: Password changed for user %s", userID)
	return nil
}

// DeleteAccount removes the user document and cascades over every project
// the user owns, including each project's task and chat sub-collections.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	owned, err := s.Store.ProjectsByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch owned projects: %v", err)
	}

	for _, project := range owned {
		projectID := project.ID.Hex()
		if err := s.Store.DeleteTasksByProject(ctx, projectID); err != nil {
			return err
		}
		if err := s.Store.DeleteChatByProject(ctx, projectID); err != nil {
			return err
		}
		if err := s.Store.DeleteProject(ctx, projectID); err != nil {
			return err
		}
	}

	if err := s.Store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}

	logging.Logger.Infof("Event ID: ACCOUNT_DELETED, Description: Account %s deleted with %d owned projects", userID, len(owned))
	return nil
}

// DeleteExpiredUnverifiedUsers removes inactive accounts whose
// verification window has passed. Run periodically.
func (s *UserService) DeleteExpiredUnverifiedUsers(ctx context.Context) error {
	filter := bson.M{
		"isActive":           false,
		"verificationExpiry": bson.M{"$lt": time.Now()},
	}
	result, err := s.UserCollection.DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete expired unverified users: %v", err)
	}
	if result.DeletedCount > 0 {
		logging.Logger.Infof("Event ID: EXPIRED_USERS_DELETED, Description: Removed %d expired unverified accounts", result.DeletedCount)
	}
	return nil
}
