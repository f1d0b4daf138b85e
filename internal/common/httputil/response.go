package httputil

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// APIResponse is the envelope for every JSON endpoint
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONResponse writes the envelope with the given status
func JSONResponse(ctx *fasthttp.RequestCtx, success bool, message string, data interface{}, statusCode int) {
	body, err := json.Marshal(APIResponse{Success: success, Message: message, Data: data})
	if err != nil {
		statusCode = fasthttp.StatusInternalServerError
		body = []byte(`{"success":false,"message":"failed to encode response"}`)
	}
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetStatusCode(statusCode)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func JSONError(ctx *fasthttp.RequestCtx, message string, statusCode int) {
	JSONResponse(ctx, false, message, nil, statusCode)
}

func JSONData(ctx *fasthttp.RequestCtx, data interface{}, statusCode int) {
	JSONResponse(ctx, true, "", data, statusCode)
}
