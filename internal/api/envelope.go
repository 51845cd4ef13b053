package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is the wire protocol version carried in every response.
// Clients check it before parsing the rest of the envelope.
const envelopeVersion = 1

// successEnvelope wraps successful responses.
type successEnvelope struct {
	V       int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// errorEnvelope wraps error responses. Error carries the human-readable
// message; code and details are present when the failure maps to a domain
// error.
type errorEnvelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the versioned
// envelope the clients expect: {v, success, data} on success and
// {v, success, error, code, message, details} on failure.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	statusCode, err := strconv.Atoi(status)
	if err != nil {
		statusCode = 200
	}

	if apiErr, ok := v.(*APIError); ok {
		return &errorEnvelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if statusCode >= 400 {
		if statusErr, ok := v.(huma.StatusError); ok {
			return &errorEnvelope{
				V:       envelopeVersion,
				Success: false,
				Error:   statusErr.Error(),
			}, nil
		}
	}

	return &successEnvelope{
		V:       envelopeVersion,
		Success: statusCode < 400,
		Data:    v,
	}, nil
}
