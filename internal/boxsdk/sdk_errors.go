package boxsdk

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gadget1999/gobox/internal/remote"
	"github.com/imroc/req/v3"
)

var (
	ErrNoAccessToken = errors.New("sdk: access token missing")
	ErrNoAPIURL      = errors.New("sdk: api url missing")
)

const (
	CodeBadRequest       = "bad_request"
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeItemNameInUse    = "item_name_in_use"
	CodeItemNameInvalid  = "item_name_invalid"
	CodeFolderNotEmpty   = "folder_not_empty"
	CodeOperationBlocked = "operation_blocked"
	CodeInternalError    = "internal_server_error"
)

// APIError is the error body returned by the API.
type APIError struct {
	Type      string `json:"type"`
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func NewAPIError(status int, code, message string) *APIError {
	return &APIError{
		Type:    "error",
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s - %s", e.Status, e.Code, e.Message)
}

// Is maps API error codes onto the remote sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case remote.ErrNotFound:
		return e.Code == CodeNotFound || e.Status == http.StatusNotFound
	case remote.ErrAlreadyExists:
		return e.Code == CodeItemNameInUse
	case remote.ErrNotEmpty:
		return e.Code == CodeFolderNotEmpty
	case remote.ErrTypeMismatch:
		return e.Code == CodeOperationBlocked
	}
	return false
}

// handleAPIError is a helper function that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	// got a response, but api returned an error
	if resp.IsErrorState() {
		if err, ok := resp.ErrorResult().(*APIError); ok && err.Code != "" {
			return fmt.Errorf("%s: %w", operation, err)
		}
		return fmt.Errorf("%s: %w", operation, NewAPIError(resp.GetStatusCode(), statusCode(resp.GetStatusCode()), resp.String()))
	}

	return nil
}

// readAPIError decodes the error body of a response that was not read
// automatically.
func readAPIError(resp *req.Response, operation string) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr APIError
	if err := jsonUnmarshal(body, &apiErr); err != nil || apiErr.Code == "" {
		apiErr = *NewAPIError(resp.GetStatusCode(), statusCode(resp.GetStatusCode()), string(body))
	}
	return fmt.Errorf("%s: %w", operation, &apiErr)
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case http.StatusConflict:
		return CodeItemNameInUse
	default:
		return CodeInternalError
	}
}
