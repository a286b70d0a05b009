package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tradebill/api/internal/models"
	"tradebill/api/internal/utils"
)

// ErrProfileExists is returned when creating a profile for a user who
// already has one.
var ErrProfileExists = errors.New("business profile already exists")

// ProfileInput carries the business profile fields for create.
type ProfileInput struct {
	BusinessName  string `json:"business_name" binding:"required,max=255"`
	Phone         string `json:"phone" binding:"max=50"`
	Email         string `json:"email" binding:"omitempty,email,max=255"`
	LicenseNumber string `json:"license_number" binding:"max=100"`
}

// ProfileUpdateInput carries optional fields for partial update; nil means
// leave unchanged.
type ProfileUpdateInput struct {
	BusinessName  *string `json:"business_name" binding:"omitempty,min=1,max=255"`
	Phone         *string `json:"phone" binding:"omitempty,max=50"`
	Email         *string `json:"email" binding:"omitempty,email,max=255"`
	LicenseNumber *string `json:"license_number" binding:"omitempty,max=100"`
}

// IProfileService defines the interface for business profile operations.
type IProfileService interface {
	FindByUserID(ctx context.Context, userID utils.SixID) (*models.BusinessProfile, error)
	CreateProfile(ctx context.Context, userID utils.SixID, in ProfileInput) (*models.BusinessProfile, error)
	UpdateProfile(ctx context.Context, userID utils.SixID, in ProfileUpdateInput) (*models.BusinessProfile, error)
}

const profilesCollection = "business_profiles"

type profileService struct {
	db *mongo.Database
}

// NewProfileService creates a new ProfileService.
func NewProfileService(db *mongo.Database) IProfileService {
	return &profileService{db: db}
}

// FindByUserID returns the user's business profile.
// Returns mongo.ErrNoDocuments if the user has not set one up.
func (s *profileService) FindByUserID(ctx context.Context, userID utils.SixID) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	collection := s.db.Collection(profilesCollection)

	err := collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding business profile for user %s: %w", userID.String(), err)
	}
	return &profile, nil
}

// CreateProfile creates the user's business profile. The unique user_id
// index guards against duplicates.
func (s *profileService) CreateProfile(ctx context.Context, userID utils.SixID, in ProfileInput) (*models.BusinessProfile, error) {
	collection := s.db.Collection(profilesCollection)

	now := time.Now().UTC()
	profile := &models.BusinessProfile{
		Base:          models.NewBase(),
		UserID:        userID,
		BusinessName:  in.BusinessName,
		Phone:         in.Phone,
		Email:         in.Email,
		LicenseNumber: in.LicenseNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := collection.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "user_id_1") {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("error inserting business profile for user %s: %w", userID.String(), err)
	}

	return profile, nil
}

// UpdateProfile applies a partial update to the user's profile, creating it
// if it does not exist yet.
func (s *profileService) UpdateProfile(ctx context.Context, userID utils.SixID, in ProfileUpdateInput) (*models.BusinessProfile, error) {
	collection := s.db.Collection(profilesCollection)

	set := bson.M{"updated_at": time.Now().UTC()}
	if in.BusinessName != nil {
		set["business_name"] = *in.BusinessName
	}
	if in.Phone != nil {
		set["phone"] = *in.Phone
	}
	if in.Email != nil {
		set["email"] = *in.Email
	}
	if in.LicenseNumber != nil {
		set["license_number"] = *in.LicenseNumber
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        utils.NewSixID(),
			"user_id":    userID,
			"created_at": time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var profile models.BusinessProfile
	err := collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&profile)
	if err != nil {
		return nil, fmt.Errorf("error updating business profile for user %s: %w", userID.String(), err)
	}
	return &profile, nil
}
