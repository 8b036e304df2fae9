package service

import (
	"context"
	"fmt"
	"time"

	"techmart/internal/apperr"
	"techmart/internal/model"
	"techmart/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/apimachinery/pkg/util/rand"
)

const tokenTTL = 7 * 24 * time.Hour

// UserStore 用户存储
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// UserService 用户认证服务。登录签发随机token，存Redis，7天有效。
type UserService struct {
	users  UserStore
	redis  *redis.Client
	logger *logger.Logger
}

// NewUserService 创建用户服务
func NewUserService(users UserStore, redisClient *redis.Client, log *logger.Logger) *UserService {
	return &UserService{users: users, redis: redisClient, logger: log}
}

// Login 用户名密码登录，返回token与用户信息
func (s *UserService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, apperr.Wrap(err, "查询用户失败")
	}
	if user == nil {
		return "", nil, apperr.New(apperr.Validation, "用户名或密码错误")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, apperr.New(apperr.Validation, "用户名或密码错误")
	}

	token := fmt.Sprintf("%d%s", time.Now().UnixNano(), rand.String(16))
	if err := s.redis.Set(ctx, "token:"+token, user.ID, tokenTTL).Err(); err != nil {
		return "", nil, apperr.Wrap(err, "保存登录态失败")
	}
	s.logger.Info("用户登录成功", "user_id", user.ID, "username", user.Username)
	return token, user, nil
}

// GetByToken 根据token解析用户，token无效时返回(nil, nil)
func (s *UserService) GetByToken(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.redis.Get(ctx, "token:"+token).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "读取登录态失败")
	}
	return s.users.GetByID(ctx, userID)
}
