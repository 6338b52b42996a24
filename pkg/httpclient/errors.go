package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/cartql/pkg/errors"
)

// remoteError matches the {"error":{"code","message"}} envelope used by
// httputil, which well-behaved webhook receivers are asked to mirror.
type remoteError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// turns it into an error. Structured bodies keep their message; 4xx statuses
// map to the matching AppError.
func ParseResponseError(resp *http.Response, target string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", target, resp.StatusCode, err)
	}

	message := string(body)
	code := ""
	var remote remoteError
	if json.Unmarshal(body, &remote) == nil && remote.Error != nil {
		message, code = remote.Error.Message, remote.Error.Code
	}
	msg := fmt.Sprintf("%s: %s", target, message)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &apperrors.AppError{Code: "NOT_FOUND", Message: msg, Status: http.StatusNotFound, Err: apperrors.ErrNotFound}
	case resp.StatusCode == http.StatusConflict:
		return apperrors.Conflict(msg)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(msg)
	case IsClientError(resp.StatusCode):
		return apperrors.InvalidInput(msg)
	default:
		return fmt.Errorf("%s returned status %d (%s): %s", target, resp.StatusCode, code, message)
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
