package profile

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"session_broker_backend/internal/autherr"
	"session_broker_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(repo Repository, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	fakeAuth := func(c *gin.Context) {
		c.Set(common.UserEmailKey, email)
		c.Next()
	}
	h := NewHandler(NewService(repo, zap.NewNop()), autherr.New(autherr.UserRules, false, zap.NewNop()), zap.NewNop())
	h.RegisterRoutes(r.Group("/api/v1"), fakeAuth)
	return r
}

func doUpdate(r *gin.Engine, body string) (*httptest.ResponseRecorder, common.Envelope) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-user-fullname", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	var env common.Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHandler_UpdateFullname(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpdateFullname", mock.Anything, "a@b.com", "A B").Return(&Record{Email: "a@b.com", Fullname: "A B", Role: DefaultRole}, nil).Once()

	rec, env := doUpdate(newTestRouter(repo, "a@b.com"), `{"fullname":" A B "}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Fullname updated successfully", env.Message)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A B", data["fullname"])
	repo.AssertExpectations(t)
}

func TestHandler_UpdateFullnameFailures(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"whitespace", "a@b.com", `{"fullname":"   "}`, http.StatusBadRequest, "Invalid fullname provided"},
		{"missing field", "a@b.com", `{}`, http.StatusBadRequest, "Invalid fullname provided"},
		{"malformed json", "a@b.com", `{`, http.StatusBadRequest, "Invalid fullname provided"},
		{"no email", "", `{"fullname":"A B"}`, http.StatusForbidden, "User does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			rec, env := doUpdate(newTestRouter(repo, tt.email), tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, env.Success)
			assert.Nil(t, env.Data)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.Equal(t, "update-user-fullname", env.Context)
			repo.AssertNotCalled(t, "UpdateFullname", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
