package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BareResponseKey marks requests whose payload is written without the envelope.
const BareResponseKey = "bare_response"

// Respond writes a JSON response with the given status code. Requests flagged with
// BareResponseKey get data at the top level, and errors as {error, code}.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	if ctx.GetBool(BareResponseKey) {
		switch {
		case status >= http.StatusBadRequest:
			ctx.JSON(status, gin.H{"error": message, "code": code})
		case data == nil:
			ctx.JSON(status, gin.H{"message": message})
		default:
			ctx.JSON(status, data)
		}
		return
	}
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Created returns a success response with HTTP 201.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, 0, "created", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
