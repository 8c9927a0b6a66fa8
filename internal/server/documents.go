package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	documentdomain "github.com/smallbiznis/etabridge/internal/document/domain"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
)

type submitDocumentsRequest struct {
	Names     []string `json:"names"`
	Strict    bool     `json:"strict"`
	Connector string   `json:"connector"`
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) SubmitDocuments(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req submitDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.documentSvc.Submit(c.Request.Context(), documentdomain.SubmitRequest{
		Kind:      kind,
		Names:     req.Names,
		Strict:    req.Strict,
		Connector: strings.TrimSpace(req.Connector),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) GetDocument(c *gin.Context) {
	kind, name, ok := s.documentParams(c)
	if !ok {
		return
	}

	doc, err := s.documentSvc.Build(c.Request.Context(), kind, name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

// DownloadDocument returns the emitted JSON as an attachment.
func (s *Server) DownloadDocument(c *gin.Context) {
	kind, name, ok := s.documentParams(c)
	if !ok {
		return
	}

	filename, body, err := s.documentSvc.Download(c.Request.Context(), kind, name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) ValidateDocument(c *gin.Context) {
	kind, name, ok := s.documentParams(c)
	if !ok {
		return
	}

	if err := s.documentSvc.Validate(c.Request.Context(), kind, name); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"name": name, "valid": true}})
}

func (s *Server) RefreshDocumentStatus(c *gin.Context) {
	kind, name, ok := s.documentParams(c)
	if !ok {
		return
	}

	status, err := s.documentSvc.FetchStatus(c.Request.Context(), kind, name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	name, ok := s.invoiceParams(c)
	if !ok {
		return
	}

	var req cancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status, err := s.documentSvc.Cancel(c.Request.Context(), name, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (s *Server) InvoicePDF(c *gin.Context) {
	name, ok := s.invoiceParams(c)
	if !ok {
		return
	}

	pdf, err := s.documentSvc.PDF(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) documentParams(c *gin.Context) (etadomain.DocumentKind, string, bool) {
	kind, err := parseKind(c)
	if err != nil {
		AbortWithError(c, err)
		return "", "", false
	}
	name, err := parseName(c)
	if err != nil {
		AbortWithError(c, err)
		return "", "", false
	}
	return kind, name, true
}

func (s *Server) invoiceParams(c *gin.Context) (string, bool) {
	kind, name, ok := s.documentParams(c)
	if !ok {
		return "", false
	}
	if kind != etadomain.KindInvoice {
		AbortWithError(c, documentdomain.ErrUnsupportedKind)
		return "", false
	}
	return name, true
}
