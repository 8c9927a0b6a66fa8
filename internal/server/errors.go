package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	connectordomain "github.com/smallbiznis/etabridge/internal/connector/domain"
	documentdomain "github.com/smallbiznis/etabridge/internal/document/domain"
	"github.com/smallbiznis/etabridge/internal/eta/client"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
	etalogdomain "github.com/smallbiznis/etabridge/internal/etalog/domain"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	// itemized document violations keep their JSON paths
	if docErr, ok := etadomain.AsValidationError(err); ok {
		items := make([]ValidationError, 0, len(docErr.Errors))
		for _, fe := range docErr.Errors {
			items = append(items, ValidationError{Field: fe.Path, Code: fe.Code, Message: fe.Message})
		}
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "document_invalid",
			Message: "document failed validation",
			Errors:  items,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isPreconditionError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "precondition_failed",
			Message: err.Error(),
		}
	case isAuthorityError(err):
		return http.StatusBadGateway, errorPayload{
			Type:    "authority_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the error type and code the request logger records.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	if payload.Type == "internal_error" {
		return payload.Type, payload.Type
	}
	code, _, _ := strings.Cut(err.Error(), ":")
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, etadomain.ErrInvalidDocumentKind),
		errors.Is(err, etadomain.ErrKindMismatch),
		errors.Is(err, etadomain.ErrInvalidPostingTime),
		errors.Is(err, etadomain.ErrInvalidTaxDetail),
		errors.Is(err, documentdomain.ErrNoDocuments),
		errors.Is(err, documentdomain.ErrUnsupportedKind),
		errors.Is(err, submission.ErrCancelReason),
		errors.Is(err, etalogdomain.ErrInvalidID):
		return true
	case isRecordValidationError(err),
		isConnectorValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, connectordomain.ErrDefaultConnectorExists),
		errors.Is(err, connectordomain.ErrNameTaken),
		errors.Is(err, recorddomain.ErrRecordLocked),
		errors.Is(err, recorddomain.ErrNotSignable),
		errors.Is(err, documentdomain.ErrAlreadySubmitted),
		errors.Is(err, documentdomain.ErrNotSubmitted),
		errors.Is(err, submission.ErrInvalidTransition):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, recorddomain.ErrNotFound),
		errors.Is(err, etadomain.ErrRecordNotFound),
		errors.Is(err, connectordomain.ErrNotFound),
		errors.Is(err, etalogdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isPreconditionError(err error) bool {
	switch {
	case errors.Is(err, connectordomain.ErrNoDefaultConnector),
		errors.Is(err, documentdomain.ErrConnectorMismatch),
		errors.Is(err, documentdomain.ErrGracePeriodExceeded),
		errors.Is(err, documentdomain.ErrSignatureRequired),
		errors.Is(err, documentdomain.ErrSubmissionFailed):
		return true
	default:
		return false
	}
}

func isAuthorityError(err error) bool {
	var (
		httpErr      *client.HTTPError
		transportErr *client.TransportError
		authErr      *client.AuthenticationError
	)
	return errors.As(err, &httpErr) || errors.As(err, &transportErr) || errors.As(err, &authErr)
}

func validationErrorCode(err error) string {
	var target error
	for _, known := range []error{
		ErrInvalidRequest,
		etadomain.ErrInvalidDocumentKind,
		documentdomain.ErrNoDocuments,
		submission.ErrCancelReason,
	} {
		if errors.Is(err, known) {
			target = known
			break
		}
	}
	if target != nil {
		return target.Error()
	}
	code, _, _ := strings.Cut(err.Error(), ":")
	return code
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "invalid_document_kind":
		return "kind"
	case "no_documents":
		return "names"
	case "cancel_reason_required":
		return "reason"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasPrefix(code, "missing_") {
		return strings.TrimPrefix(code, "missing_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "no_documents":
		return "at least one document name is required"
	case "cancel_reason_required":
		return "a cancellation reason is required"
	default:
		return "invalid value"
	}
}

func isRecordValidationError(err error) bool {
	switch {
	case errors.Is(err, recorddomain.ErrInvalidName),
		errors.Is(err, recorddomain.ErrInvalidCompany),
		errors.Is(err, recorddomain.ErrInvalidPayload),
		errors.Is(err, recorddomain.ErrNameMismatch),
		errors.Is(err, recorddomain.ErrInvalidSignature):
		return true
	default:
		return false
	}
}

func isConnectorValidationError(err error) bool {
	switch {
	case errors.Is(err, connectordomain.ErrInvalidCompany),
		errors.Is(err, connectordomain.ErrInvalidName),
		errors.Is(err, connectordomain.ErrInvalidKind),
		errors.Is(err, connectordomain.ErrInvalidEnvironment),
		errors.Is(err, connectordomain.ErrInvalidCredentials),
		errors.Is(err, connectordomain.ErrInvalidGracePeriod),
		errors.Is(err, connectordomain.ErrMissingPOSSerial):
		return true
	default:
		return false
	}
}
