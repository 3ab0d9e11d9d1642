package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-training/internal/errs"
)

// OK writes {success:true, ...fields}.
func OK(c *gin.Context, fields gin.H) {
	JSON(c, http.StatusOK, fields)
}

// JSON writes a success envelope with an explicit status.
func JSON(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		if k == "success" {
			continue
		}
		body[k] = v
	}
	c.JSON(status, body)
}

// Data flattens a JSON-encodable result into the success envelope.
func Data(c *gin.Context, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		Fail(c, fmt.Errorf("encode response failed: %w", err))
		return
	}
	fields := gin.H{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		Fail(c, fmt.Errorf("encode response failed: %w", err))
		return
	}
	OK(c, fields)
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"success": false,
		"error":   message,
	})
}

// Fail maps err onto the error envelope. Errors outside the taxonomy are logged and reported
// with a generic message.
func Fail(c *gin.Context, err error) {
	status := StatusOf(err)

	var e *errs.Error
	if !errors.As(err, &e) {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		Error(c, status, "internal server error")
		return
	}
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	body := gin.H{
		"success": false,
		"error":   e.Error(),
	}
	if e.Reason != "" {
		body["reason"] = e.Reason
	}
	c.JSON(status, body)
}

func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
