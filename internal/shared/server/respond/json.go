package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 Created JSON response.
func Created(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusCreated, payload)
}

// BadRequest reports a request that failed binding or validation.
func BadRequest(c *gin.Context, err error) {
	var details interface{}
	if err != nil {
		details = gin.H{"reason": err.Error()}
	}
	Error(c, http.StatusBadRequest, "validation_error", "Invalid request body", details)
}
