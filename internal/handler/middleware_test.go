package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbibank/internal/handler"
	"cbibank/internal/model"
	"cbibank/pkg/response"
	"cbibank/pkg/token"
)

const testSecret = "test-secret"

func newTokenManager() *token.Manager {
	return token.NewManager(testSecret, "cbibank", time.Hour)
}

// activeUserLoader 固定返回正常用户
func activeUserLoader(role string) handler.PrincipalLoader {
	return func(ctx context.Context, userID int64) (*model.User, error) {
		return &model.User{ID: userID, Role: role, IsActive: true}, nil
	}
}

func newAuthRouter(mgr *token.Manager, loader handler.PrincipalLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", handler.AuthMiddleware(mgr, loader), func(c *gin.Context) {
		response.Success(c, gin.H{"ok": true})
	})
	r.GET("/admin", handler.AuthMiddleware(mgr, loader), handler.AdminMiddleware(), func(c *gin.Context) {
		response.Success(c, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, authHeader string, path string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthMiddleware_ReasonCodes(t *testing.T) {
	mgr := newTokenManager()

	valid, err := mgr.Generate(1, model.RoleCustomer)
	require.NoError(t, err)

	expiredMgr := token.NewManager(testSecret, "cbibank", -time.Minute)
	expired, err := expiredMgr.Generate(1, model.RoleCustomer)
	require.NoError(t, err)

	wrongKey, err := token.NewManager("other-secret", "cbibank", time.Hour).Generate(1, model.RoleCustomer)
	require.NoError(t, err)

	r := newAuthRouter(mgr, activeUserLoader(model.RoleCustomer))

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"缺少头", "", response.CodeTokenMissing},
		{"无 Bearer 前缀", valid, response.CodeTokenMalformed},
		{"空令牌", "Bearer ", response.CodeTokenMalformed},
		{"格式错误", "Bearer not-a-jwt", response.CodeTokenMalformed},
		{"已过期", "Bearer " + expired, response.CodeTokenExpired},
		{"签名无效", "Bearer " + wrongKey, response.CodeTokenInvalid},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w, body := doRequest(r, c.header, "/protected")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, c.code, body.Code)
		})
	}
}

func TestAuthMiddleware_PrincipalChecks(t *testing.T) {
	mgr := newTokenManager()
	valid, err := mgr.Generate(7, model.RoleCustomer)
	require.NoError(t, err)

	t.Run("用户不存在", func(t *testing.T) {
		loader := func(ctx context.Context, userID int64) (*model.User, error) {
			return nil, errors.New("not found")
		}
		w, body := doRequest(newAuthRouter(mgr, loader), "Bearer "+valid, "/protected")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.CodeUserNotFound, body.Code)
	})

	t.Run("用户已停用", func(t *testing.T) {
		loader := func(ctx context.Context, userID int64) (*model.User, error) {
			return &model.User{ID: userID, Role: model.RoleCustomer, IsActive: false}, nil
		}
		w, body := doRequest(newAuthRouter(mgr, loader), "Bearer "+valid, "/protected")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.CodeUserDeactivated, body.Code)
	})
}

func TestAuthMiddleware_Success(t *testing.T) {
	mgr := newTokenManager()
	valid, err := mgr.Generate(7, model.RoleCustomer)
	require.NoError(t, err)

	w, body := doRequest(newAuthRouter(mgr, activeUserLoader(model.RoleCustomer)), "Bearer "+valid, "/protected")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, body.Code)
	assert.Equal(t, "success", body.Message)
}

func TestAdminMiddleware(t *testing.T) {
	mgr := newTokenManager()
	valid, err := mgr.Generate(7, model.RoleCustomer)
	require.NoError(t, err)

	t.Run("普通用户被拒绝", func(t *testing.T) {
		w, body := doRequest(newAuthRouter(mgr, activeUserLoader(model.RoleCustomer)), "Bearer "+valid, "/admin")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, response.CodeAdminRequired, body.Code)
	})

	t.Run("管理员放行", func(t *testing.T) {
		w, body := doRequest(newAuthRouter(mgr, activeUserLoader(model.RoleAdmin)), "Bearer "+valid, "/admin")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, response.CodeSuccess, body.Code)
	})
}
