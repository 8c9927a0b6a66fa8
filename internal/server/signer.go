package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/etabridge/pkg/db/pagination"
)

type storeSignatureRequest struct {
	Signature string `json:"signature"`
}

// ListPendingSignatures feeds the desktop signer with invoices still waiting on a signature.
func (s *Server) ListPendingSignatures(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if page.PageSize > 250 {
		page.PageSize = 250
	}

	resp, err := s.documentSvc.PendingSignatures(c.Request.Context(), companyFromRequest(c), pagination.Pagination{
		PageToken: strings.TrimSpace(page.PageToken),
		PageSize:  page.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Records, "page_info": resp.PageInfo})
}

func (s *Server) GetUnsignedInvoice(c *gin.Context) {
	name, err := parseName(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.documentSvc.UnsignedInvoice(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) StoreSignature(c *gin.Context) {
	name, err := parseName(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req storeSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.documentSvc.StoreSignature(c.Request.Context(), name, req.Signature)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}
