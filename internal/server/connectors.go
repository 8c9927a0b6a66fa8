package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	connectordomain "github.com/smallbiznis/etabridge/internal/connector/domain"
)

type createConnectorRequest struct {
	Company            string `json:"company"`
	Name               string `json:"name"`
	Kind               string `json:"kind"`
	Environment        string `json:"environment"`
	ClientID           string `json:"client_id"`
	ClientSecret       string `json:"client_secret"`
	POSSerial          string `json:"pos_serial"`
	POSOSVersion       string `json:"pos_os_version"`
	SignatureStartDate string `json:"signature_start_date"`
	GracePeriodHours   int    `json:"grace_period_hours"`
	IsDefault          bool   `json:"is_default"`
}

type listConnectorsQuery struct {
	Company string `form:"company"`
}

func (s *Server) CreateConnector(c *gin.Context) {
	var req createConnectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// a bare date starts signing at midnight UTC
	startDate, err := parseOptionalTime(req.SignatureStartDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("signature_start_date", "invalid_signature_start_date", "invalid signature_start_date"))
		return
	}

	connector, err := s.connectorSvc.Create(c.Request.Context(), connectordomain.CreateRequest{
		Company:            strings.TrimSpace(req.Company),
		Name:               strings.TrimSpace(req.Name),
		Kind:               strings.TrimSpace(req.Kind),
		Environment:        strings.TrimSpace(req.Environment),
		ClientID:           strings.TrimSpace(req.ClientID),
		ClientSecret:       req.ClientSecret,
		POSSerial:          strings.TrimSpace(req.POSSerial),
		POSOSVersion:       strings.TrimSpace(req.POSOSVersion),
		SignatureStartDate: startDate,
		GracePeriodHours:   req.GracePeriodHours,
		IsDefault:          req.IsDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": connector})
}

func (s *Server) ListConnectors(c *gin.Context) {
	var query listConnectorsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	connectors, err := s.connectorSvc.List(c.Request.Context(), strings.TrimSpace(query.Company))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": connectors})
}
