package controller

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncwatch/server/internal/service"
	"github.com/syncwatch/server/pkg/validator"
	"github.com/syncwatch/server/pkg/wsrouter"
)

const (
	codeUnknownEvent = "UNKNOWN_EVENT"
	codeRateLimited  = "RATE_LIMITED"
	codeInternal     = "INTERNAL"
)

var errRateLimited = errors.New("too many messages")

// payloadError carries the per field report of a rejected payload.
type payloadError struct {
	fields []validator.ValidationError
}

func (e *payloadError) Error() string {
	return "invalid payload"
}

func (c controller) validateInput(input any) error {
	if fields, ok := c.validate.Validate(input); !ok {
		return &payloadError{fields: fields}
	}

	return nil
}

// errorPayload maps a handler error onto the code reported to the client.
func (c controller) errorPayload(err error) service.ErrorPayload {
	var (
		pErr   *payloadError
		svcErr *service.Error
	)

	switch {
	case errors.As(err, &pErr):
		return service.ErrorPayload{
			Code:    service.ErrInvalidPayload.Code,
			Message: pErr.Error(),
			Fields:  pErr.fields,
		}
	case errors.Is(err, wsrouter.ErrMalformedMessage):
		return service.ErrorPayload{Code: service.ErrInvalidPayload.Code, Message: err.Error()}
	case errors.Is(err, wsrouter.ErrUnknownMessageType):
		return service.ErrorPayload{Code: codeUnknownEvent, Message: err.Error()}
	case errors.Is(err, errRateLimited):
		return service.ErrorPayload{Code: codeRateLimited, Message: err.Error()}
	case errors.As(err, &svcErr):
		payload := service.ErrorPayload{Code: svcErr.Code, Message: svcErr.Message}
		if svcErr == service.ErrInvalidPayload {
			payload.Message = err.Error()
			var fields validation.Errors
			if errors.As(err, &fields) {
				payload.Fields = fields
			}
		}

		return payload
	}

	return service.ErrorPayload{Code: codeInternal, Message: "internal error"}
}

var idCounter atomic.Uint64

// generateTimeBasedId returns a short id that sorts by creation time.
func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + strconv.FormatUint(idCounter.Add(1), 36)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}
