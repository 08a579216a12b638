package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"cbibank/internal/model"
	"cbibank/pkg/response"
	"cbibank/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// gin context 键
const (
	ctxKeyUserID = "userID"
	ctxKeyRole   = "role"
)

// PrincipalLoader 按令牌载荷加载用户，鉴权中间件用它校验用户仍然存在且未停用
type PrincipalLoader func(ctx context.Context, userID int64) (*model.User, error)

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		// 记录日志
		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// AuthMiddleware 鉴权中间件
//
// 拒绝原因精确区分：缺头 / 格式错误 / 过期 / 签名无效 / 用户不存在 / 已停用，
// 客户端据此决定是跳登录页还是刷新令牌
func AuthMiddleware(tokenMgr *token.Manager, loadPrincipal PrincipalLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, code, message := parseBearer(c, tokenMgr)
		if claims == nil {
			response.Unauthorized(c, code, message)
			return
		}

		user, err := loadPrincipal(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Unauthorized(c, response.CodeUserNotFound, "用户不存在")
			return
		}
		if !user.IsActive {
			response.Unauthorized(c, response.CodeUserDeactivated, "账户已停用")
			return
		}

		c.Set(ctxKeyUserID, user.ID)
		c.Set(ctxKeyRole, user.Role)
		c.Next()
	}
}

// OptionalAuthMiddleware 可选鉴权：有合法令牌时关联用户身份，没有则按匿名放行
// 工单提交入口用它，让登录用户的工单自动归属到名下
func OptionalAuthMiddleware(tokenMgr *token.Manager, loadPrincipal PrincipalLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, _, _ := parseBearer(c, tokenMgr); claims != nil {
				if user, err := loadPrincipal(c.Request.Context(), claims.UserID); err == nil && user.IsActive {
					c.Set(ctxKeyUserID, user.ID)
					c.Set(ctxKeyRole, user.Role)
				}
			}
		}
		c.Next()
	}
}

// AdminMiddleware 管理员权限校验，必须挂在 AuthMiddleware 之后
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxKeyRole) != model.RoleAdmin {
			response.Forbidden(c, response.CodeAdminRequired, "需要管理员权限")
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware 按 IP 的固定窗口限流（每分钟）
//
// INCR + 首次设置过期，窗口边界内计数自然归零；
// Redis 故障时放行，限流不应成为可用性瓶颈
func RateLimitMiddleware(rdb *redis.Client, perMin int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMin <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:ip:%s:%d", c.ClientIP(), time.Now().Unix()/60)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("[RateLimit] Redis 异常，跳过限流: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, time.Minute)
		}

		if count > int64(perMin) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Code:    response.CodeRateLimitExceed,
				Message: "请求过于频繁，请稍后重试",
			})
			return
		}

		c.Next()
	}
}

// parseBearer 解析 Authorization 头，失败时返回对应的拒绝码和文案
func parseBearer(c *gin.Context, tokenMgr *token.Manager) (*token.Claims, int, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, response.CodeTokenMissing, "缺少 Authorization 头"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, response.CodeTokenMalformed, "Authorization 头格式错误"
	}

	claims, err := tokenMgr.Parse(parts[1])
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenMalformed):
			return nil, response.CodeTokenMalformed, "令牌格式错误"
		case errors.Is(err, token.ErrTokenExpired):
			return nil, response.CodeTokenExpired, "令牌已过期"
		default:
			return nil, response.CodeTokenInvalid, "令牌无效"
		}
	}

	return claims, 0, ""
}

// currentUserID 读取鉴权中间件写入的用户ID
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxKeyUserID)
}

// isAdmin 当前请求是否管理员身份
func isAdmin(c *gin.Context) bool {
	return c.GetString(ctxKeyRole) == model.RoleAdmin
}
