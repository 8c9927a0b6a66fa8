package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetLog(c *gin.Context) {
	log, err := s.logSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": log})
}
