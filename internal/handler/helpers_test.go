package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/middleware"
	"github.com/noah-isme/unisync-api/internal/models"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *responseError         `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func newTestContext(rec *httptest.ResponseRecorder, claims *models.JWTClaims) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(rec)
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-student", SessionID: "sess-1", Role: models.RoleStudent, Email: "student@unisync.edu", FullName: "Demo Student"}
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-staff", SessionID: "sess-2", Role: models.RoleStaff, Email: "staff@unisync.edu", FullName: "Demo Staff"}
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
