package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tradebill/api/internal/auth"
	"tradebill/api/internal/db"
	"tradebill/api/internal/models"
	"tradebill/api/internal/utils"
)

// ErrEmailExists is returned when an attempt is made to register an email
// that already has an account.
var ErrEmailExists = errors.New("email already registered")

// ErrInvalidCredentials is returned when login fails. Deliberately the same
// for unknown email and wrong password.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// IUserService defines the interface for account operations.
type IUserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, userID utils.SixID) (*models.User, error)
}

const usersCollection = "users"

type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database) IUserService {
	return &userService{db: db}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *userService) Register(ctx context.Context, email, password string) (*models.User, error) {
	collection := s.db.Collection(usersCollection)

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
	}

	now := time.Now().UTC()
	var newUser *models.User

	operation := func() error {
		newUser = &models.User{
			Base:         models.NewBase(), // ID regenerated on each attempt
			Email:        email,
			PasswordHash: hashedPassword,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, insertErr := collection.InsertOne(ctx, newUser)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		// The unique email index turns a duplicate registration into a
		// duplicate key error; distinguish it from an _id collision.
		if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "email_1") {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error inserting new user for %s: %w", email, err)
	}

	return newUser, nil
}

// Authenticate verifies the email/password pair and returns the user.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user by email %s: %w", email, err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// FindByID finds a user by their ID.
func (s *userService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user %s: %w", userID.String(), err)
	}
	return &user, nil
}
