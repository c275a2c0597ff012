package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/localcircle/localcircle-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the shared envelope:
//
//	{"v":1,"success":true,"data":{...}}
//	{"v":1,"success":false,"error":"post not found","code":"NOT_FOUND"}
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = 200
	}

	switch body := v.(type) {
	case response.Envelope:
		return body, nil
	case *APIError:
		return response.Envelope{
			Version: response.Version,
			Error:   body.Message,
			Code:    body.Code,
			Details: body.Details,
		}, nil
	case *huma.ErrorModel:
		return response.Envelope{
			Version: response.Version,
			Error:   body.Detail,
			Code:    statusToCode(body.Status),
		}, nil
	}

	return response.Wrap(code, v), nil
}
