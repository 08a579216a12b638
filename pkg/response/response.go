package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeServerError   = 500
	CodeBusinessError = 1000
)

// 业务错误码
const (
	CodeBalanceNotEnough  = 1001 // 余额不足
	CodeAccountNotFound   = 1002 // 账户不存在
	CodeBelowMinimum      = 1003 // 金额低于最低限制
	CodeFDNotActive       = 1004 // 定期存款非存续状态
	CodeFDNotFound        = 1005 // 定期存款不存在
	CodeEmailRegistered   = 1006 // 邮箱已注册
	CodeInvalidCredential = 1007 // 账号或密码错误
	CodeDuplicateCard     = 1008 // 已有在途/有效卡片
	CodeCardNotFound      = 1009 // 卡片不存在
	CodeInvalidPin        = 1010 // 密码校验失败
	CodeTicketNotFound    = 1011 // 工单不存在
	CodeAmountExceedLimit = 1012 // 超出单笔限额
	CodePaymentFailed     = 1013 // 支付验证失败
)

// 鉴权拒绝原因码（均对应 HTTP 层的 401 语义）
const (
	CodeTokenMissing     = 2001 // 缺少 Authorization 头
	CodeTokenMalformed   = 2002 // 头格式错误 / 令牌格式错误
	CodeTokenExpired     = 2003 // 令牌已过期
	CodeTokenInvalid     = 2004 // 签名无效
	CodeUserNotFound     = 2005 // 令牌有效但用户不存在
	CodeUserDeactivated  = 2006 // 用户已停用
	CodeAdminRequired    = 2007 // 需要管理员权限
	CodeRateLimitExceed  = 2008 // 触发限流
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

// ServerError 内部错误统一返回固定文案，细节只进日志
func ServerError(c *gin.Context) {
	Error(c, CodeServerError, "服务器内部错误")
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}

// Unauthorized 鉴权失败：中断请求并返回具体拒绝原因码
func Unauthorized(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Code:    code,
		Message: message,
	})
}

// Forbidden 权限不足
func Forbidden(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Response{
		Code:    code,
		Message: message,
	})
}
