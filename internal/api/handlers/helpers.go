package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"tradebill/api/internal/api/middleware"
	"tradebill/api/internal/utils"
)

// currentUserID extracts the authenticated user's ID from the Gin context.
// AuthMiddleware must have run first.
func currentUserID(c *gin.Context) (utils.SixID, error) {
	raw, exists := c.Get(middleware.ContextKeyUserID)
	if !exists {
		return utils.SixID{}, fmt.Errorf("no authenticated user in request context")
	}
	idStr, ok := raw.(string)
	if !ok {
		return utils.SixID{}, fmt.Errorf("unexpected user ID type in request context")
	}
	userID, err := utils.ParseSixID(idStr)
	if err != nil {
		return utils.SixID{}, fmt.Errorf("malformed user ID in request context: %w", err)
	}
	return userID, nil
}
