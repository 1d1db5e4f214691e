package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoffination/open-social-server/internal/pkg"
)

// respondOK writes the success envelope with any extra payload fields merged
// in beside message and type.
func respondOK(c *gin.Context, message string, payload gin.H) {
	body := gin.H{
		"message": message,
		"type":    "ok",
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// respondErr writes the failure envelope. Internal detail never reaches the
// client; the kind tells it how to react.
func respondErr(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"message": pkg.ClientMessage(err),
		"type":    pkg.KindOf(err),
	})
}
