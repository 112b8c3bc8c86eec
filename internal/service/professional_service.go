package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"github.com/example/profinder/internal/auth"
	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/datamodels/account"
	"github.com/example/profinder/internal/datamodels/professional"
)

// ProfessionalService 服务者注册/登录。
// 注册时同事务创建金币账户（余额 0、未审核），核心的一切操作都以账户为主体。
type ProfessionalService struct {
	db   *gorm.DB
	repo professional.Repository
	jwt  *config.JWTConfig
}

func NewProfessionalService(db *gorm.DB, repo professional.Repository, jwt *config.JWTConfig) *ProfessionalService {
	return &ProfessionalService{db: db, repo: repo, jwt: jwt}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

// Register 注册服务者并建立金币账户
func (s *ProfessionalService) Register(ctx context.Context, username, password string) (*professional.Professional, *account.Account, error) {
	p := &professional.Professional{
		Username: username,
		Salt:     "profinder", // 简化实现，真实业务请使用随机盐
	}
	p.Password = hashPassword(password, p.Salt)

	acc := &account.Account{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrUsernameTaken
			}
			return err
		}
		acc.ProfessionalID = p.ID
		return tx.Create(acc).Error
	})
	if err != nil {
		return nil, nil, translateTxError(err)
	}
	return p, acc, nil
}

// Login 登录并返回携带账户身份的 JWT
func (s *ProfessionalService) Login(ctx context.Context, username, password string) (string, error) {
	p, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProfessionalNotFound
		}
		return "", err
	}
	if p.Banned {
		return "", errors.New("account banned")
	}
	if hashPassword(password, p.Salt) != p.Password {
		return "", errors.New("invalid password")
	}

	var acc account.Account
	if err := s.db.WithContext(ctx).
		Where("professional_id = ?", p.ID).
		First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAccountNotFound
		}
		return "", err
	}
	return auth.GenerateToken(s.jwt, p.ID, acc.ID, p.Username)
}
