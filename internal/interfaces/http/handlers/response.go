// Package handlers implements the REST endpoints of the analysis service.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/synthbench/reagent/pkg/errors"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeError maps an application error onto its HTTP status and envelope.
func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	body := errorBody{Code: code.String(), Message: err.Error()}
	if appErr, ok := err.(*errors.AppError); ok {
		body.Message = appErr.Message
		body.Detail = appErr.Detail
	}
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), body)
}
