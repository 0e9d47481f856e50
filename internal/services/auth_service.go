package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"dinerhub/internal/caching"
	"dinerhub/internal/common"
	"dinerhub/internal/config"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "dinerhub-auth"
	tokenAudience = "dinerhub-api"
)

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID         string `json:"uid,omitempty"`
	GuestID        string `json:"gid,omitempty"`
	RoleID         string `json:"rid"`
	RoleName       string `json:"role"`
	DeviceID       string `json:"did"`
	TableID        string `json:"tid,omitempty"`
	SessionVersion int64  `json:"sv"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the request principal.
func (c *TokenClaims) Principal() (*common.Principal, error) {
	roleID, err := uuid.Parse(c.RoleID)
	if err != nil {
		return nil, errors.New("invalid role in token")
	}
	p := &common.Principal{
		RoleID:   roleID,
		RoleName: c.RoleName,
		DeviceID: c.DeviceID,
		TokenID:  c.ID,
	}
	if c.ExpiresAt != nil {
		p.TokenExpiresAt = c.ExpiresAt.Time
	}
	if p.UserID, err = optionalUUID(c.UserID); err != nil {
		return nil, errors.New("invalid user in token")
	}
	if p.GuestID, err = optionalUUID(c.GuestID); err != nil {
		return nil, errors.New("invalid guest in token")
	}
	if p.TableID, err = optionalUUID(c.TableID); err != nil {
		return nil, errors.New("invalid table in token")
	}
	if p.UserID == nil && p.GuestID == nil {
		return nil, errors.New("token has no subject")
	}
	return p, nil
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
	OTP      string  `json:"otp"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	DeviceID  string `json:"device_id"`
	UserAgent string `json:"-"`
	IP        string `json:"-"`
}

// OTPSender delivers one-time codes to the user.
type OTPSender interface {
	Send(ctx context.Context, email, code string) error
}

type logOTPSender struct {
	logger *slog.Logger
}

// NewLogOTPSender writes codes to the debug log. Used until a mail provider is configured.
func NewLogOTPSender(logger *slog.Logger) OTPSender {
	return &logOTPSender{logger: logger}
}

func (s *logOTPSender) Send(ctx context.Context, email, code string) error {
	s.logger.DebugContext(ctx, "otp issued", "email", email, "code", code)
	return nil
}

// AuthService handles credentials, JWT issuance and device sessions
type AuthService interface {
	SendOTP(ctx context.Context, email string) error
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req LoginRequest) (*models.TokenResponse, error)
	// Refresh rotates the refresh token; the old one stops working.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	Logout(ctx context.Context, p *common.Principal) error
	// GuestSession exchanges a table QR code for a guest token bound to that table.
	GuestSession(ctx context.Context, qrCode, deviceID string) (*models.TokenResponse, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.Session, error)
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error

	ParseToken(token string) (*TokenClaims, error)
	// CheckSession rejects revoked tokens and tokens from an older session generation.
	CheckSession(ctx context.Context, claims *TokenClaims) error
	SigningKey() []byte
}

type authService struct {
	userRepo  repositories.UserRepository
	roleRepo  repositories.RoleRepository
	tableRepo repositories.TableRepository
	cacheSvc  caching.CacheService
	otp       OTPSender
	cfg       config.AuthConfig
	jwtSecret []byte
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepository,
	roleRepo repositories.RoleRepository,
	tableRepo repositories.TableRepository,
	cacheSvc caching.CacheService,
	otp OTPSender,
	cfg config.AuthConfig,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		tableRepo: tableRepo,
		cacheSvc:  cacheSvc,
		otp:       otp,
		cfg:       cfg,
		jwtSecret: []byte(cfg.JWTSecret),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *authService) SigningKey() []byte {
	return s.jwtSecret
}

func otpKey(email string) string { return "otp:" + strings.ToLower(strings.TrimSpace(email)) }

func refreshKey(hash string) string { return "refresh:" + hash }

func revokedKey(tokenID string) string { return "revoked:" + tokenID }

func versionKey(userID string) string { return "session_version:" + userID }

func (s *authService) SendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return common.NewValidationError("email", "a valid email is required")
	}
	limited, err := s.cacheSvc.IsRateLimited(ctx, "otp:"+strings.ToLower(email), 5, time.Hour)
	if err != nil {
		return fmt.Errorf("otp rate limit: %w", err)
	}
	if limited {
		return common.NewValidationError("email", "too many codes requested, try again later")
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.cacheSvc.SetString(ctx, otpKey(email), code, s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return s.otp.Send(ctx, email, code)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *authService) verifyOTP(ctx context.Context, email, code string) error {
	stored, err := s.cacheSvc.GetString(ctx, otpKey(email))
	if err != nil {
		return err
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return common.NewValidationError("otp", "invalid or expired code")
	}
	return s.cacheSvc.Delete(ctx, otpKey(email))
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(req.Email, "@") {
		return nil, common.NewValidationError("email", "a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, common.NewValidationError("password", "must be at least 8 characters")
	}
	if err := common.ValidateRequiredString(req.FullName, "full_name"); err != nil {
		return nil, err
	}
	if err := s.verifyOTP(ctx, req.Email, req.OTP); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByName(ctx, models.RoleClient, false)
	if err != nil {
		return nil, fmt.Errorf("load client role: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		RoleID:       role.ID,
		RoleName:     role.Name,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*models.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, common.NewValidationError("email", "email and password are required")
	}

	limitKey := "login:" + email
	limited, err := s.cacheSvc.IsRateLimited(ctx, limitKey, s.cfg.LoginRateLimit, s.cfg.LoginRateWindow)
	if err != nil {
		s.logger.Warn("login rate limit check failed", "error", err)
	} else if limited {
		return nil, common.NewUnauthorizedError("too many login attempts, try again later")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUnauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, common.NewUnauthorizedError("invalid credentials")
	}
	if user.Status == models.UserStatusBanned {
		return nil, common.NewForbiddenError("account is banned")
	}
	if err := s.cacheSvc.ResetRateLimit(ctx, limitKey); err != nil {
		s.logger.Warn("failed to reset login rate limit", "error", err)
	}

	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	return s.issueUserTokens(ctx, user, deviceID, req.UserAgent, req.IP)
}

// refreshRecord is what a refresh token hash points at in Redis.
type refreshRecord struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
}

func (s *authService) issueUserTokens(ctx context.Context, user *models.User, deviceID, userAgent, ip string) (*models.TokenResponse, error) {
	version, err := s.sessionVersion(ctx, user.ID.String())
	if err != nil {
		return nil, err
	}
	claims := &TokenClaims{
		UserID:         user.ID.String(),
		RoleID:         user.RoleID.String(),
		RoleName:       user.RoleName,
		DeviceID:       deviceID,
		SessionVersion: version,
	}
	resp, err := s.sign(claims, user.ID.String(), s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken := generateSecureToken()
	hash := hashToken(refreshToken)
	record, err := json.Marshal(refreshRecord{UserID: user.ID.String(), DeviceID: deviceID})
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetString(ctx, refreshKey(hash), string(record), s.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	// A new login on the same device replaces the previous session.
	prev, err := s.cacheSvc.GetSession(ctx, user.ID.String(), deviceID)
	switch {
	case err != nil:
		s.logger.Warn("failed to load previous session", "user_id", user.ID, "device_id", deviceID, "error", err)
	case prev != nil:
		if err := s.cacheSvc.Delete(ctx, refreshKey(prev.TokenHash)); err != nil {
			s.logger.Warn("failed to revoke previous session", "user_id", user.ID, "device_id", deviceID, "error", err)
		}
	}
	now := s.now().UTC()
	session := &models.Session{
		UserID:    user.ID.String(),
		DeviceID:  deviceID,
		TokenHash: hash,
		UserAgent: userAgent,
		IP:        ip,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}
	if err := s.cacheSvc.SetSession(ctx, user.ID.String(), session, s.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	resp.RefreshToken = refreshToken
	return resp, nil
}

func (s *authService) sign(claims *TokenClaims, subject string, ttl time.Duration) (*models.TokenResponse, error) {
	now := s.now()
	tokenID := uuid.NewString()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        tokenID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}
	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
		TokenID:     tokenID,
		IssuedAt:    now,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if refreshToken == "" {
		return nil, common.NewValidationError("refresh_token", "refresh_token is required")
	}
	hash := hashToken(refreshToken)
	raw, err := s.cacheSvc.GetString(ctx, refreshKey(hash))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, common.NewUnauthorizedError("invalid refresh token")
	}
	var rec refreshRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, common.NewUnauthorizedError("invalid refresh token")
	}
	if err := s.cacheSvc.Delete(ctx, refreshKey(hash)); err != nil {
		return nil, err
	}

	session, err := s.cacheSvc.GetSession(ctx, rec.UserID, rec.DeviceID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.TokenHash != hash {
		return nil, common.NewUnauthorizedError("session has been revoked")
	}

	userID, err := uuid.Parse(rec.UserID)
	if err != nil {
		return nil, common.NewUnauthorizedError("invalid refresh token")
	}
	user, err := s.userRepo.GetByID(ctx, userID, false)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUnauthorizedError("account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserStatusBanned {
		return nil, common.NewForbiddenError("account is banned")
	}
	return s.issueUserTokens(ctx, user, rec.DeviceID, session.UserAgent, session.IP)
}

func (s *authService) Logout(ctx context.Context, p *common.Principal) error {
	if p.TokenID != "" {
		ttl := time.Until(p.TokenExpiresAt)
		if ttl > 0 {
			if err := s.cacheSvc.SetString(ctx, revokedKey(p.TokenID), "1", ttl); err != nil {
				return fmt.Errorf("blacklist token: %w", err)
			}
		}
	}
	if p.UserID == nil {
		return nil
	}
	userID := p.UserID.String()
	session, err := s.cacheSvc.GetSession(ctx, userID, p.DeviceID)
	if err != nil {
		return err
	}
	if session != nil {
		if err := s.cacheSvc.Delete(ctx, refreshKey(session.TokenHash)); err != nil {
			return err
		}
	}
	return s.cacheSvc.DeleteSession(ctx, userID, p.DeviceID)
}

func (s *authService) GuestSession(ctx context.Context, qrCode, deviceID string) (*models.TokenResponse, error) {
	if strings.TrimSpace(qrCode) == "" {
		return nil, common.NewValidationError("qr_code", "qr_code is required")
	}
	table, err := s.tableRepo.GetByQRCode(ctx, qrCode)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUnauthorizedError("unknown table code")
	}
	if err != nil {
		return nil, err
	}
	role, err := s.roleRepo.GetByName(ctx, models.RoleGuest, false)
	if err != nil {
		return nil, fmt.Errorf("load guest role: %w", err)
	}
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	guestID := uuid.NewString()
	claims := &TokenClaims{
		GuestID:  guestID,
		RoleID:   role.ID.String(),
		RoleName: role.Name,
		DeviceID: deviceID,
		TableID:  table.ID.String(),
	}
	resp, err := s.sign(claims, guestID, s.cfg.GuestTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("guest session opened", "table_id", table.ID, "guest_id", guestID)
	return resp, nil
}

func (s *authService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.Session, error) {
	return s.cacheSvc.ListSessions(ctx, userID.String())
}

// RevokeAllSessions bumps the session generation, which invalidates every
// access token already issued, and drops all refresh tokens.
func (s *authService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	id := userID.String()
	if _, err := s.cacheSvc.Incr(ctx, versionKey(id)); err != nil {
		return fmt.Errorf("bump session version: %w", err)
	}
	sessions, err := s.cacheSvc.ListSessions(ctx, id)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := s.cacheSvc.Delete(ctx, refreshKey(session.TokenHash)); err != nil {
			return err
		}
	}
	s.logger.Info("sessions revoked", "user_id", id, "count", len(sessions))
	return s.cacheSvc.DeleteAllSessions(ctx, id)
}

func (s *authService) sessionVersion(ctx context.Context, userID string) (int64, error) {
	raw, err := s.cacheSvc.GetString(ctx, versionKey(userID))
	if err != nil {
		return 0, fmt.Errorf("read session version: %w", err)
	}
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (s *authService) ParseToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil || !parsed.Valid {
		return nil, common.NewUnauthorizedError("invalid or expired token")
	}
	return claims, nil
}

func (s *authService) CheckSession(ctx context.Context, claims *TokenClaims) error {
	revoked, err := s.cacheSvc.GetString(ctx, revokedKey(claims.ID))
	if err != nil {
		return fmt.Errorf("check token revocation: %w", err)
	}
	if revoked != "" {
		return common.NewUnauthorizedError("token has been revoked")
	}
	if claims.UserID == "" {
		return nil
	}
	version, err := s.sessionVersion(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if version != claims.SessionVersion {
		return common.NewUnauthorizedError("session has been revoked")
	}
	return nil
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// hashToken creates a SHA-256 hash of the token for secure storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
