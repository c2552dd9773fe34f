package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	docdomain "github.com/smallbiznis/fiberdesk/internal/document/domain"
)

type renderDocumentRequest struct {
	Invoice   docdomain.Invoice `json:"invoice"`
	Client    docdomain.Client  `json:"client"`
	Project   docdomain.Project `json:"project"`
	ProjectID string            `json:"project_id"`
}

// RenderDocument renders one variant from snapshots posted by the caller.
func (s *Server) RenderDocument(c *gin.Context) {
	docType, ok := documentTypeParam(c)
	if !ok {
		return
	}

	var req renderDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.documents.Generate(c.Request.Context(), docdomain.Request{
		Type:      docType,
		Invoice:   req.Invoice,
		Client:    req.Client,
		Project:   req.Project,
		ProjectID: req.ProjectID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeDocument(c, doc)
}

func documentTypeParam(c *gin.Context) (docdomain.Type, bool) {
	docType, err := docdomain.ParseType(c.Param("type"))
	if err != nil {
		AbortWithError(c, newValidationError("type", "invalid_document_type", "unknown document type"))
		return "", false
	}
	c.Set("document_type", string(docType))
	return docType, true
}

func writeDocument(c *gin.Context, doc docdomain.Document) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Header("X-Document-Number", doc.Number)
	c.Data(http.StatusOK, doc.ContentType, doc.Bytes)
}
