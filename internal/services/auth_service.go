package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notification"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/storage"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// Dispatcher delivers notifications on behalf of the services.
type Dispatcher interface {
	Dispatch(ctx context.Context, messages []notification.Message) notification.Report
	SendOne(ctx context.Context, msg notification.Message) error
}

// AuthOptions tunes credential handling.
type AuthOptions struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
	// FrontendURL is the origin reset links point to.
	FrontendURL string
}

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *TokenManager
	dispatcher Dispatcher
	blobs      storage.BlobStore
	opts       AuthOptions
	log        zerolog.Logger
	now        func() time.Time

	// dummyHash is compared against on unknown emails so a failed login
	// costs the same whether or not the account exists.
	dummyHash []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens *TokenManager,
	dispatcher Dispatcher,
	blobs storage.BlobStore,
	opts AuthOptions,
	log zerolog.Logger,
) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = constants.DefaultResetTokenTTL
	}

	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), opts.BcryptCost)

	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		dispatcher: dispatcher,
		blobs:      blobs,
		opts:       opts,
		log:        log,
		now:        time.Now,
		dummyHash:  dummyHash,
	}
}

// AuthResult is a user together with a freshly issued session token.
type AuthResult struct {
	User  *models.User
	Token string
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// Signup registers a new user and signs them in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email, err := validateEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	role, ok := models.ParseRole(input.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials. Unknown emails and wrong passwords fail with
// the same error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// VerifyToken resolves a session token to the user it was issued for.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// CurrentUser retrieves a user by ID.
func (s *AuthService) CurrentUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// RequestPasswordReset emails a reset link to a registered address. The
// returned message is the same whether or not the address is registered,
// and whether or not the email could be delivered. An undeliverable token
// is cleared before returning.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", ErrEmailRequired
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return constants.MsgPasswordResetRequested, nil
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	rawToken, err := utils.GenerateToken(constants.ResetTokenBytes)
	if err != nil {
		return "", err
	}

	hash := utils.HashToken(rawToken)
	expiresAt := s.now().Add(s.opts.ResetTokenTTL)
	user.ResetTokenHash = &hash
	user.ResetTokenExpiresAt = &expiresAt
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	msg, err := notification.PasswordReset(user.Email, notification.PasswordResetData{
		Recipient: displayName(user),
		Link:      s.resetLink(rawToken),
		Validity:  s.opts.ResetTokenTTL,
	})
	if err == nil {
		err = s.dispatcher.SendOne(ctx, msg)
	}
	if err != nil {
		s.log.Error().
			Err(err).
			Uint64("user_id", user.ID).
			Msg("password reset email failed, clearing token")

		user.ResetTokenHash = nil
		user.ResetTokenExpiresAt = nil
		if clearErr := s.userRepo.Update(context.WithoutCancel(ctx), user); clearErr != nil {
			return "", fmt.Errorf("failed to clear reset token: %w", clearErr)
		}
	}

	return constants.MsgPasswordResetRequested, nil
}

// ResetPassword replaces the password of the user holding token. The token
// is single use.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrResetTokenRequired
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.FindByResetTokenHash(ctx, utils.HashToken(token), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

var (
	avatarExtensions = []string{".jpeg", ".jpg", ".png", ".gif"}
	avatarMIMETypes  = []string{"image/jpeg", "image/jpg", "image/png", "image/gif"}
)

// UploadAvatar stores a new profile image and replaces the previous one.
func (s *AuthService) UploadAvatar(ctx context.Context, actor policy.Actor, upload Upload) (*models.User, error) {
	if upload.Body == nil {
		return nil, ErrFileRequired
	}
	ext := strings.ToLower(path.Ext(upload.Name))
	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(upload.MIMEType, ";")[0]))
	if !slices.Contains(avatarExtensions, ext) || !slices.Contains(avatarMIMETypes, mimeType) {
		return nil, ErrInvalidAvatar
	}
	if upload.Size > constants.MaxAvatarSize {
		return nil, ErrAvatarTooLarge
	}

	user, err := s.CurrentUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey(constants.AvatarDir, upload.Name)
	if _, err := s.blobs.Save(ctx, key, upload.Body); err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	previous := user.Avatar
	avatarURL := blobURL(key)
	user.Avatar = &avatarURL
	if err := s.userRepo.Update(ctx, user); err != nil {
		_ = s.blobs.Delete(context.WithoutCancel(ctx), key)
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	if previous != nil {
		s.deleteBlob(ctx, *previous)
	}

	return user, nil
}

// DeleteAvatar clears the profile image and removes the stored file.
func (s *AuthService) DeleteAvatar(ctx context.Context, actor policy.Actor) (*models.User, error) {
	user, err := s.CurrentUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user.Avatar == nil {
		return nil, ErrNoAvatar
	}

	previous := *user.Avatar
	user.Avatar = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to clear avatar: %w", err)
	}

	s.deleteBlob(ctx, previous)
	return user, nil
}

func (s *AuthService) deleteBlob(ctx context.Context, url string) {
	key, ok := blobKey(url)
	if !ok {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to delete stored avatar")
	}
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) resetLink(rawToken string) string {
	return strings.TrimRight(s.opts.FrontendURL, "/") + "/resetpass.html?token=" + rawToken
}

var validate = validator.New()

func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrEmailRequired
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func displayName(user *models.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}

// blobURL is the public URL a stored key is served under.
func blobURL(key string) string {
	return constants.UploadsURLPrefix + "/" + key
}

func blobKey(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, constants.UploadsURLPrefix+"/")
	return key, ok && key != ""
}
