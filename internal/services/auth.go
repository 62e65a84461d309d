package services

import (
	"context"
	"strings"
	"time"

	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionClaims are the claims of a session token. The role claim is informational;
// authorization always re-reads the profile.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionMeta describes the client a session is issued to.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

type AuthService struct {
	db    *gorm.DB
	cfg   *config.Config
	keys  *KeyRing
	audit *AuditService
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:    db,
		cfg:   cfg,
		keys:  NewKeyRing(db, cfg),
		audit: NewAuditService(db),
	}
}

func (s *AuthService) Keys() *KeyRing {
	return s.keys
}

// HashPassword hashes a password using bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.Security.BcryptCost)
	return string(bytes), err
}

// VerifyPassword verifies a password against a hash
func (s *AuthService) VerifyPassword(hashedPassword, password string) bool {
	if hashedPassword == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) emailTaken(tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func defaultType(role models.Role) models.ProfileType {
	if role == models.RoleSuperAdmin {
		return models.TypeSuperAdmin
	}
	return models.TypePublicUser
}

// CreateUser creates an email/password identity and its profile
func (s *AuthService) CreateUser(ctx context.Context, email, password, fullName string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	email = normalizeEmail(email)

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Email:           email,
		PasswordHash:    hashedPassword,
		Provider:        models.ProviderEmail,
		ProviderSubject: email,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.emailTaken(tx, email)
		if err != nil {
			return err
		}
		if taken {
			return ErrUserExists
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{
			ID:       user.ID,
			FullName: strPtr(strings.TrimSpace(fullName)),
			Role:     role,
			Type:     defaultType(role),
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, errors.Wrap(err, "failed to create user")
	}

	return user, nil
}

// Authenticate verifies credentials and returns the user
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_subject = ?", models.ProviderEmail, email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "failed to load user")
	}

	if !s.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// CreateDefaultUser creates the default superadmin if no identity exists yet
func (s *AuthService) CreateDefaultUser(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to count users")
	}

	if count == 0 {
		_, err := s.CreateUser(ctx,
			s.cfg.DefaultUser.Email,
			s.cfg.DefaultUser.Password,
			s.cfg.DefaultUser.FullName,
			models.RoleSuperAdmin,
		)
		return err
	}

	return nil
}

// IssueSession signs a session token for userID with the active key and stores the session row.
func (s *AuthService) IssueSession(ctx context.Context, userID string, meta SessionMeta) (string, *models.Session, error) {
	key, err := s.keys.Active(ctx)
	if err != nil {
		return "", nil, err
	}

	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrProfileNotFound
		}
		return "", nil, errors.Wrap(err, "failed to load profile")
	}

	now := time.Now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		KeyID:     key.ID,
		ExpiresAt: now.Add(s.cfg.JWT.SessionTTL()),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	claims := SessionClaims{
		Role: string(profile.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   userID,
			Issuer:    s.cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = key.ID
	tokenString, err := token.SignedString([]byte(key.Secret))
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to sign session token")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, &models.AuditLog{
			UserID:    &userID,
			Action:    "login",
			Table:     "sessions",
			RecordID:  &session.ID,
			IPAddress: meta.IPAddress,
		})
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to create session")
	}

	return tokenString, session, nil
}

// LookupSession verifies a session token and returns its live session row.
func (s *AuthService) LookupSession(ctx context.Context, tokenString string) (*models.Session, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrKeyNotFound
		}
		key, err := s.keys.Lookup(ctx, kid)
		if err != nil {
			return nil, err
		}
		return []byte(key.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.JWT.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	var session models.Session
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND expires_at > ?", claims.ID, claims.Subject, time.Now()).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "failed to load session")
	}

	return &session, nil
}

// SignOut deletes the session and records the logout.
func (s *AuthService) SignOut(ctx context.Context, session *models.Session, ipAddress string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", session.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, &models.AuditLog{
			UserID:    &session.UserID,
			Action:    "logout",
			Table:     "sessions",
			RecordID:  &session.ID,
			IPAddress: ipAddress,
		})
	})
	if err != nil {
		return errors.Wrap(err, "failed to sign out")
	}
	return nil
}

// DeleteExpiredSessions removes expired sessions
func (s *AuthService) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to delete expired sessions")
	}
	return res.RowsAffected, nil
}

// OAuthIdentity is what a social provider tells us about the signed-in account.
type OAuthIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// FindOrCreateOAuthUser maps a provider account to an identity. The first login creates
// the user and a profile with role user. A verified email that matches an existing
// identity signs into that identity instead.
func (s *AuthService) FindOrCreateOAuthUser(ctx context.Context, ident OAuthIdentity) (*models.User, error) {
	if ident.Provider == "" || ident.Subject == "" {
		return nil, ErrInvalidCredentials
	}
	email := normalizeEmail(ident.Email)

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("provider = ? AND provider_subject = ?", ident.Provider, ident.Subject).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if email != "" {
			err := tx.Where("email = ?", email).Order("created_at asc").First(&user).Error
			if err == nil {
				if ident.EmailVerified {
					return nil
				}
				return ErrUserExists
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		user = models.User{
			Email:           email,
			Provider:        ident.Provider,
			ProviderSubject: ident.Subject,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{
			ID:        user.ID,
			FullName:  strPtr(strings.TrimSpace(ident.Name)),
			AvatarURL: strPtr(ident.AvatarURL),
			Role:      models.RoleUser,
			Type:      models.TypePublicUser,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, errors.Wrap(err, "failed to resolve oauth user")
	}

	return &user, nil
}
