package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"tradebill/api/internal/services"
)

// ProfileHandler handles business profile requests.
type ProfileHandler struct {
	profileService services.IProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService services.IProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile handles GET /profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}

	profile, err := h.profileService.FindByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Business profile not found"})
			return
		}
		log.Printf("GetProfile failed for user %s: %v", userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load business profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// CreateProfile handles POST /profile.
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}

	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profileService.CreateProfile(c.Request.Context(), userID, in)
	if err != nil {
		if errors.Is(err, services.ErrProfileExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Business profile already exists"})
			return
		}
		log.Printf("CreateProfile failed for user %s: %v", userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create business profile"})
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// UpdateProfile handles PUT /profile. Creates the profile if it does not
// exist yet.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}

	var in services.ProfileUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, in)
	if err != nil {
		log.Printf("UpdateProfile failed for user %s: %v", userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update business profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}
