package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cbibank/internal/config"
	"cbibank/internal/model"
	"cbibank/internal/repository"
	"cbibank/pkg/idgen"
	"cbibank/pkg/token"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

var (
	ErrEmailRegistered    = errors.New("邮箱已注册")
	ErrInvalidCredential  = errors.New("账号或密码错误")
	ErrAccountDeactivated = errors.New("账户已停用")
)

type AuthService struct {
	db          *gorm.DB
	cfg         *config.Config
	tokenMgr    *token.Manager
	userRepo    *repository.UserRepository
	accountRepo *repository.AccountRepository
	outboxRepo  *repository.OutboxRepository
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:          db,
		cfg:         cfg,
		tokenMgr:    token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpireHours)*time.Hour),
		userRepo:    repository.NewUserRepository(db),
		accountRepo: repository.NewAccountRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

// TokenManager 鉴权中间件复用同一套密钥配置
func (s *AuthService) TokenManager() *token.Manager {
	return s.tokenMgr
}

type RegisterRequest struct {
	Name        string
	Email       string
	Phone       string
	Password    string
	DateOfBirth time.Time
	Address     string
}

type AuthResponse struct {
	Token         string          `json:"token"`
	UserID        int64           `json:"user_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}

// Register 注册用户并开立主账户
//
// 【关键点】用户、账户、欢迎事件在同一事务内落库：
// 不存在有用户没账户的中间状态
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if exists {
		return nil, ErrEmailRegistered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &model.User{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    string(hashed),
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
		Role:        model.RoleCustomer,
		IsActive:    true,
	}

	account := &model.Account{
		AccountNumber: idgen.GenerateAccountNo(),
		AccountType:   model.AccountTypeSavings,
		Balance:       decimal.NewFromFloat(s.cfg.Business.SeedBalance), // 开户赠送
		Status:        model.AccountStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return fmt.Errorf("创建用户失败: %w", err)
		}

		account.UserID = user.ID
		if err := s.accountRepo.Create(ctx, tx, account); err != nil {
			return fmt.Errorf("创建账户失败: %w", err)
		}

		welcomePayload := map[string]interface{}{
			"user_id":        user.ID,
			"name":           user.Name,
			"email":          user.Email,
			"account_number": account.AccountNumber,
		}
		if err := s.outboxRepo.Append(ctx, tx, model.EventTypeWelcome,
			s.cfg.Kafka.Topic.Notification, account.AccountNumber, welcomePayload); err != nil {
			return fmt.Errorf("写入欢迎事件失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	signed, err := s.tokenMgr.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("签发令牌失败: %w", err)
	}

	log.Printf("用户注册成功: userID=%d, accountNo=%s", user.ID, account.AccountNumber)

	return &AuthResponse{
		Token:         signed,
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Phone:         user.Phone,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
	}, nil
}

// Login 登录
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	account, err := s.accountRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("查询账户失败: %w", err)
	}

	signed, err := s.tokenMgr.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("签发令牌失败: %w", err)
	}

	return &AuthResponse{
		Token:         signed,
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Phone:         user.Phone,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
	}, nil
}

type ProfileResponse struct {
	UserID        int64           `json:"user_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	DateOfBirth   time.Time       `json:"date_of_birth"`
	Address       string          `json:"address"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}

// GetProfile 查询个人资料
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileResponse{
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Phone:         user.Phone,
		DateOfBirth:   user.DateOfBirth,
		Address:       user.Address,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
	}, nil
}

type UpdateProfileRequest struct {
	Name    string
	Phone   string
	Address string
}

// UpdateProfile 更新个人资料（只允许姓名/电话/地址）
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*ProfileResponse, error) {
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}

	if len(updates) > 0 {
		if err := s.userRepo.UpdateProfile(ctx, userID, updates); err != nil {
			return nil, fmt.Errorf("更新资料失败: %w", err)
		}
	}

	return s.GetProfile(ctx, userID)
}

// LoadPrincipal 鉴权中间件回调：按令牌载荷加载用户并校验状态
func (s *AuthService) LoadPrincipal(ctx context.Context, userID int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
