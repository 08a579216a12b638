package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ============================================================================
// 会话令牌
// ============================================================================
//
// 无状态签名令牌（HS256）：身份信息全部编码在令牌内，
// 服务端按请求验签，不保存会话表。

var (
	ErrTokenExpired   = errors.New("令牌已过期")
	ErrTokenInvalid   = errors.New("令牌无效")
	ErrTokenMalformed = errors.New("令牌格式错误")
)

// Claims 令牌载荷
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// Manager 令牌签发与校验
type Manager struct {
	secret []byte
	issuer string
	expire time.Duration
}

func NewManager(secret, issuer string, expire time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		expire: expire,
	}
}

// Generate 为用户签发令牌
func (m *Manager) Generate(userID int64, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID: userID,
		Role:   role,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Parse 校验令牌并返回载荷
// 失败原因区分为：格式错误 / 已过期 / 签名无效，便于上层返回精确的拒绝码
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !t.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
