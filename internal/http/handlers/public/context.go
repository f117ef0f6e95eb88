package public

import (
	handlershared "github.com/dasam-next/internal/http/handlers/shared"
	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

func getSessionToken(c *gin.Context) (string, bool) {
	token, ok := handlershared.GetContextString(c, "session_token")
	if !ok {
		respondError(c, response.CodeUnauthorized, "session missing", nil)
		return "", false
	}
	return token, true
}

func cartOwnerFromSession(c *gin.Context) (service.CartOwner, bool) {
	token, ok := getSessionToken(c)
	if !ok {
		return service.CartOwner{}, false
	}
	return service.CartOwner{SessionID: token}, true
}
