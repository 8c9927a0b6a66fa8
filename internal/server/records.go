package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxRecordBody = 4 << 20

// PutRecord stores the ERP's raw sales document. Submitted documents are locked.
func (s *Server) PutRecord(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	name, err := parseName(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRecordBody))
	if err != nil || len(payload) == 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.recordSvc.Put(c.Request.Context(), kind, name, payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}
