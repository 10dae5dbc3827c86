package service

import (
	"errors"
	"strings"

	"ireporter/config"
	"ireporter/internal/auth"
	"ireporter/internal/domain"
	"ireporter/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists      = errors.New("email already registered")
	ErrInvalidCreds     = errors.New("invalid email or password")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// UserStore is the persistence surface the auth and notification services need.
type UserStore interface {
	Create(u *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByGoogleID(googleID string) (*models.User, error)
	Update(u *models.User) error
	ListAdmins() ([]models.User, error)
}

type AuthService struct {
	cfg   *config.Config
	users UserStore
}

func NewAuthService(cfg *config.Config, users UserStore) *AuthService {
	return &AuthService{cfg: cfg, users: users}
}

type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
}

// Register validates credentials before touching the store, so a rejected
// registration never writes anything.
func (s *AuthService) Register(in RegisterInput) (*models.User, string, error) {
	if in.Password != in.ConfirmPassword {
		return nil, "", ErrPasswordMismatch
	}
	if len(in.Password) < 6 {
		return nil, "", ErrPasswordTooShort
	}
	_, err := s.users.GetByEmail(in.Email)
	if err == nil {
		return nil, "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	u := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(u); err != nil {
		return nil, "", err
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", err
	}
	return u, token, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	u, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCreds
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// LoginWithGoogle finds or creates a user for a Google identity and returns
// user, token and whether the account is new.
func (s *AuthService) LoginWithGoogle(googleID, email, name, avatarURL string) (*models.User, string, bool, error) {
	u, err := s.users.GetByGoogleID(googleID)
	if err == nil {
		token, err := auth.GenerateToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
		return u, token, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", false, err
	}
	// Link Google identity to an existing email account when there is one.
	existing, err := s.users.GetByEmail(email)
	if err == nil {
		gid := googleID
		existing.GoogleID = &gid
		if avatarURL != "" {
			existing.AvatarURL = avatarURL
		}
		if err := s.users.Update(existing); err != nil {
			return nil, "", false, err
		}
		token, err := auth.GenerateToken(&s.cfg.JWT, existing.ID, existing.Email, existing.Role)
		return existing, token, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", false, err
	}
	first, last := splitName(name, email)
	gid := googleID
	u = &models.User{
		FirstName: first,
		LastName:  last,
		Email:     email,
		GoogleID:  &gid,
		AvatarURL: avatarURL,
		Role:      domain.RoleUser,
	}
	if err := s.users.Create(u); err != nil {
		return nil, "", false, err
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	return u, token, true, err
}

func (s *AuthService) GetUser(id uint) (*models.User, error) {
	return s.users.GetByID(id)
}

type ProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Bio       *string
	AvatarURL *string
}

func (s *AuthService) UpdateProfile(userID uint, in ProfileInput) (*models.User, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		u.AvatarURL = *in.AvatarURL
	}
	if err := s.users.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

func splitName(name, email string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		local, _, _ := strings.Cut(email, "@")
		return local, ""
	}
	first, last, found := strings.Cut(name, " ")
	if !found {
		return name, ""
	}
	return first, last
}
