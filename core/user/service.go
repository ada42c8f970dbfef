package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
)

var (
	ErrNotFound              = errors.New("user not found")
	ErrEmailExists           = errors.New("a user with this email already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidActivationCode = errors.New("invalid activation code")

	// ErrRefreshFailed is deliberately generic: an expired token, a tampered
	// token and a missing session all read the same to the client.
	ErrRefreshFailed = errors.New("could not refresh token")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUserByID(ctx context.Context, id string) error
		CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	}

	Service struct {
		repo     Repository
		sessions *SessionStore
		tokens   *TokenIssuer
		mailSvc  core.EmailService
		mediaSvc core.MediaService
		logger   core.Logger
		conf     *core.Config
	}
)

func NewService(
	repo Repository,
	sessions *SessionStore,
	tokens *TokenIssuer,
	mailSvc core.EmailService,
	mediaSvc core.MediaService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		mailSvc:  mailSvc,
		mediaSvc: mediaSvc,
		logger:   logger,
		conf:     conf,
	}
}

func (svc *Service) Sessions() *SessionStore { return svc.sessions }
func (svc *Service) Tokens() *TokenIssuer    { return svc.tokens }

// Register checks email availability and issues an activation token with a
// confirmation code; nothing is persisted until activation succeeds.
func (svc *Service) Register(ctx context.Context, nu NewUser) (ActivationToken, error) {
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return ActivationToken{}, ErrEmailExists
	} else if errors.Cause(err) != ErrNotFound {
		return ActivationToken{}, errors.Wrap(err, "finding user by email")
	}

	pending := PendingRegistration{Name: nu.Name, Email: nu.Email}
	var usr User
	if err := usr.SetPassword(nu.Password); err != nil {
		return ActivationToken{}, errors.Wrap(err, "hashing password")
	}
	pending.PasswordHash = usr.PasswordHash

	activation, err := svc.tokens.IssueActivation(pending)
	if err != nil {
		return ActivationToken{}, errors.Wrap(err, "issuing activation token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: nu.Name, Address: nu.Email}},
		Subject:      "Activate your account",
		TemplateName: "activation",
		TemplateData: struct {
			Name string
			Code string
		}{nu.Name, activation.Code},
	})
	return activation, nil
}

// Activate verifies the activation token and code and persists the user.
func (svc *Service) Activate(ctx context.Context, token, code string) (User, error) {
	pending, wantCode, err := svc.tokens.VerifyActivation(token)
	if err != nil {
		return User{}, err
	}
	if code != wantCode {
		return User{}, ErrInvalidActivationCode
	}

	if _, err := svc.repo.GetUserByEmail(ctx, pending.Email); err == nil {
		return User{}, ErrEmailExists
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "finding user by email")
	}

	now := time.Now().UTC()
	usr := User{
		ID:           uuid.NewString(),
		Name:         pending.Name,
		Email:        pending.Email,
		Role:         RoleUser,
		IsVerified:   true,
		PasswordHash: pending.PasswordHash,
		Courses:      []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "creating user")
}

// Login authenticates the user, saves the session and mints a token pair.
func (svc *Service) Login(ctx context.Context, lu LoginUser) (User, TokenPair, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, lu.Email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, TokenPair{}, ErrInvalidCredentials
		}
		return User{}, TokenPair{}, errors.Wrap(err, "finding user by email")
	}
	if err := usr.CheckPassword(lu.Password); err != nil {
		return User{}, TokenPair{}, ErrInvalidCredentials
	}
	return svc.startSession(ctx, usr)
}

// SocialLogin finds or creates a user from an externally authenticated
// profile and logs them in.
func (svc *Service) SocialLogin(ctx context.Context, su SocialUser) (User, TokenPair, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, su.Email)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, TokenPair{}, errors.Wrap(err, "finding user by email")
		}
		now := time.Now().UTC()
		usr = User{
			ID:         uuid.NewString(),
			Name:       su.Name,
			Email:      su.Email,
			Role:       RoleUser,
			IsVerified: true,
			Avatar:     core.Asset{URL: su.AvatarURL},
			Courses:    []string{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if usr, err = svc.repo.CreateUser(ctx, usr); err != nil {
			return User{}, TokenPair{}, errors.Wrap(err, "creating user")
		}
	}
	return svc.startSession(ctx, usr)
}

func (svc *Service) startSession(ctx context.Context, usr User) (User, TokenPair, error) {
	if err := svc.sessions.Save(ctx, usr); err != nil {
		return User{}, TokenPair{}, err
	}
	pair, err := svc.tokens.IssuePair(usr)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	return usr, pair, nil
}

// Refresh mints a new token pair for a valid refresh token whose session
// still exists. All failure causes collapse into ErrRefreshFailed.
func (svc *Service) Refresh(ctx context.Context, refreshToken string) (User, TokenPair, error) {
	id, err := svc.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return User{}, TokenPair{}, ErrRefreshFailed
	}
	usr, err := svc.sessions.Get(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrSessionNotFound {
			return User{}, TokenPair{}, ErrRefreshFailed
		}
		return User{}, TokenPair{}, err
	}
	pair, err := svc.tokens.IssuePair(usr)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	return usr, pair, nil
}

// Logout deletes the session entry; outstanding tokens become useless.
func (svc *Service) Logout(ctx context.Context, id string) error {
	return svc.sessions.Delete(ctx, id)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

// UpdateInfo mutates name/email and writes the fresh profile through to the
// session cache.
func (svc *Service) UpdateInfo(ctx context.Context, id string, uu UpdateUserInfo) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by ID")
	}

	if uu.Email != "" && uu.Email != usr.Email {
		if _, err := svc.repo.GetUserByEmail(ctx, uu.Email); err == nil {
			return User{}, ErrEmailExists
		} else if errors.Cause(err) != ErrNotFound {
			return User{}, errors.Wrap(err, "finding user by email")
		}
		usr.Email = uu.Email
	}
	if uu.Name != "" {
		usr.Name = uu.Name
	}
	return svc.saveAndSync(ctx, usr)
}

func (svc *Service) UpdatePassword(ctx context.Context, id string, up UpdateUserPassword) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if len(usr.PasswordHash) == 0 {
		// social accounts have no password to change
		return User{}, ErrInvalidCredentials
	}
	if err := usr.CheckPassword(up.OldPassword); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := usr.SetPassword(up.NewPassword); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.saveAndSync(ctx, usr)
}

// UpdateAvatar replaces the hosted avatar: the previous asset is destroyed
// first, then the new content uploaded.
func (svc *Service) UpdateAvatar(ctx context.Context, id, content string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by ID")
	}

	if usr.Avatar.PublicID != "" {
		if err := svc.mediaSvc.Destroy(ctx, usr.Avatar.PublicID); err != nil {
			return User{}, errors.Wrap(err, "destroying old avatar")
		}
	}
	asset, err := svc.mediaSvc.Upload(ctx, "avatars", content)
	if err != nil {
		return User{}, errors.Wrap(err, "uploading avatar")
	}
	usr.Avatar = asset
	return svc.saveAndSync(ctx, usr)
}

// GrantCourse appends a purchased course to the user's set.
func (svc *Service) GrantCourse(ctx context.Context, id, courseID string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if usr.OwnsCourse(courseID) {
		return usr, nil
	}
	usr.Courses = append(usr.Courses, courseID)
	return svc.saveAndSync(ctx, usr)
}

func (svc *Service) UpdateRole(ctx context.Context, id string, role Role) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	usr.Role = role
	return svc.saveAndSync(ctx, usr)
}

// Delete removes the user and their session entry in the same step.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteUserByID(ctx, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return svc.sessions.Delete(ctx, id)
}

// saveAndSync persists the mutation then write-throughs the session cache so
// authenticated requests see the fresh profile immediately.
func (svc *Service) saveAndSync(ctx context.Context, usr User) (User, error) {
	usr.UpdatedAt = time.Now().UTC()
	usr, err := svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	if err := svc.sessions.Save(ctx, usr); err != nil {
		return User{}, err
	}
	return usr, nil
}
