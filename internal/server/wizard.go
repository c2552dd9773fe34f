package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	wizarddomain "github.com/smallbiznis/fiberdesk/internal/wizard/domain"
)

type sessionResponse struct {
	wizarddomain.Session
	Subtotal decimal.Decimal `json:"subtotal"`
}

type replaceLinesRequest struct {
	Lines []linedomain.Line `json:"lines"`
}

type failureResponse struct {
	Operation string `json:"operation"`
	Attempts  int    `json:"attempts"`
	Message   string `json:"message"`
}

type reportResponse struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Failures  []failureResponse `json:"failures,omitempty"`
}

type submitResponse struct {
	Closed  bool             `json:"closed"`
	Report  reportResponse   `json:"report"`
	Session *sessionResponse `json:"session,omitempty"`
	Error   *errorPayload    `json:"error,omitempty"`
}

func newSessionResponse(session wizarddomain.Session) sessionResponse {
	return sessionResponse{Session: session, Subtotal: session.Subtotal()}
}

func newReportResponse(report linedomain.Report) reportResponse {
	resp := reportResponse{
		Total:     report.Total,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
	}
	for _, r := range report.Results {
		if r.Err == nil {
			continue
		}
		resp.Failures = append(resp.Failures, failureResponse{
			Operation: r.Operation.String(),
			Attempts:  r.Attempts,
			Message:   r.Err.Error(),
		})
	}
	return resp
}

func sessionIDParam(c *gin.Context) string {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("session_id", id)
	return id
}

// tagSession exposes the session identifiers to the logging and tracing
// middlewares.
func tagSession(c *gin.Context, session wizarddomain.Session) {
	c.Set("session_id", session.ID)
	c.Set("invoice_id", session.InvoiceID)
}

func (s *Server) OpenSession(c *gin.Context) {
	var req wizarddomain.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.wizard.Open(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tagSession(c, session)
	c.JSON(http.StatusCreated, gin.H{"data": newSessionResponse(session)})
}

func (s *Server) GetSession(c *gin.Context) {
	session, err := s.wizard.Get(c.Request.Context(), sessionIDParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tagSession(c, session)
	c.JSON(http.StatusOK, gin.H{"data": newSessionResponse(session)})
}

func (s *Server) ReplaceSessionLines(c *gin.Context) {
	id := sessionIDParam(c)

	var req replaceLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.wizard.ReplaceLines(c.Request.Context(), id, req.Lines)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tagSession(c, session)
	c.JSON(http.StatusOK, gin.H{"data": newSessionResponse(session)})
}

// SubmitSession answers 200 when every operation landed. A partial pass
// answers 502 with the failures and the session left open for a retry.
func (s *Server) SubmitSession(c *gin.Context) {
	result, err := s.wizard.Submit(c.Request.Context(), sessionIDParam(c))

	var rerr *linedomain.ReconcileError
	if err != nil && !errors.As(err, &rerr) {
		AbortWithError(c, err)
		return
	}

	resp := submitResponse{
		Closed: result.Closed,
		Report: newReportResponse(result.Report),
	}
	if result.Session != nil {
		tagSession(c, *result.Session)
		session := newSessionResponse(*result.Session)
		resp.Session = &session
	}

	if rerr == nil {
		c.JSON(http.StatusOK, gin.H{"data": resp})
		return
	}

	_ = c.Error(err)
	status, payload := mapError(err)
	resp.Error = &payload
	c.JSON(status, gin.H{"data": resp})
}

func (s *Server) CloseSession(c *gin.Context) {
	if err := s.wizard.Close(c.Request.Context(), sessionIDParam(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) RenderSessionDocument(c *gin.Context) {
	id := sessionIDParam(c)
	docType, ok := documentTypeParam(c)
	if !ok {
		return
	}

	doc, err := s.wizard.RenderDocument(c.Request.Context(), id, docType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeDocument(c, doc)
}
