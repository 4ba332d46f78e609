package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
)

// ActorHeader carries the identity of whoever performs a mutation. The
// upstream auth layer sets it after validating the session.
const ActorHeader = "X-Actor-ID"

func actorFromContext(c *gin.Context) models.Actor {
	return models.Actor{
		ID:        c.GetHeader(ActorHeader),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
