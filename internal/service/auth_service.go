package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/notify"
	"eduplatform-web/internal/observability"
	"eduplatform-web/internal/querycache"
	"eduplatform-web/internal/routes"
	"eduplatform-web/internal/session"
)

// ProfileStaleTime is how long the current user's profile is served from cache
const ProfileStaleTime = 10 * time.Minute

// AuthAPI is the part of the REST client the auth flows use
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) error
	Logout(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error
	Profile(ctx context.Context) (domain.User, error)
	UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (domain.User, error)
}

// AuthService runs the authentication flows against the API and keeps the
// session and the cached profile in step with them.
type AuthService struct {
	api     AuthAPI
	session *session.Store
	cache   *querycache.Gateway
	logger  *slog.Logger

	profile     *querycache.Observer[domain.User]
	unsubscribe func()
	closeOnce   sync.Once
}

func NewAuthService(ctx context.Context, api AuthAPI, sess *session.Store, cache *querycache.Gateway) *AuthService {
	s := &AuthService{
		api:     api,
		session: sess,
		cache:   cache,
		logger:  observability.Logger(),
	}

	s.profile = querycache.Observe[domain.User](ctx, cache, s.profileOptions())
	s.profile.SetKey(querycache.Keys.Auth.Profile(), s.fetchProfile)
	s.unsubscribe = sess.Subscribe(s.onSessionChange)
	return s
}

func (s *AuthService) profileOptions() querycache.QueryOptions {
	return querycache.QueryOptions{
		StaleTime: ProfileStaleTime,
		Enabled:   s.session.IsAuthenticated,
	}
}

// onSessionChange fetches the profile once when somebody logs in and drops
// every cached result when the session ends, whatever ended it.
func (s *AuthService) onSessionChange(prev, next domain.SessionState) {
	switch {
	case !prev.IsAuthenticated && next.IsAuthenticated:
		s.cache.InvalidateExact(context.Background(), querycache.Keys.Auth.Profile())
	case prev.IsAuthenticated && !next.IsAuthenticated:
		s.cache.Clear()
	}
}

// fetchProfile loads the profile and writes it through to the session that
// asked for it. A reply for a session that has since ended is dropped.
func (s *AuthService) fetchProfile(ctx context.Context) (domain.User, error) {
	generation := s.session.Generation()
	user, err := s.api.Profile(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.session.SetUserFor(generation, user); err != nil {
		observability.FromContext(ctx).Debug("Dropping profile of an ended session", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// Close stops following the session
func (s *AuthService) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.profile.Close()
	})
}

// Login validates the form, exchanges the credentials for tokens and starts
// the session. It returns the landing route of the user's role.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	if err := ValidateLogin(creds); err != nil {
		return "", err
	}

	resp, err := querycache.Mutate(ctx, s.cache, func(ctx context.Context) (domain.LoginResponse, error) {
		resp, err := s.api.Login(ctx, creds)
		if err != nil {
			return resp, err
		}
		if err := s.session.SetAuth(resp); err != nil {
			return resp, err
		}
		return resp, nil
	}, querycache.MutationOptions[domain.LoginResponse]{
		ErrorTitle:   "Login failed",
		Unauthorized: "Please check your credentials and try again.",
		Success: func(resp domain.LoginResponse) notify.Notification {
			return notify.Success("Welcome back!", "Logged in as "+resp.User.DisplayName())
		},
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("User logged in", "user_id", resp.User.ID, "role", resp.User.Role)
	return routes.LandingRoute(resp.User.Role), nil
}

// Register creates an account. The user has to verify their email before
// logging in, so the caller is sent to the login page.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	if err := ValidateRegister(req); err != nil {
		return "", err
	}
	if req.Role == "" {
		req.Role = domain.RoleStudent
	}

	_, err := querycache.Mutate(ctx, s.cache, exec(func(ctx context.Context) error {
		return s.api.Register(ctx, req)
	}), querycache.MutationOptions[struct{}]{
		ErrorTitle: "Registration failed",
		Success:    toast[struct{}]("Registration successful!", "Please check your email to verify your account."),
	})
	if err != nil {
		return "", err
	}
	return routes.Login, nil
}

// Logout ends the session. The local session and the cache are cleared even
// when the server call fails; the server error is still returned.
func (s *AuthService) Logout(ctx context.Context) error {
	end := func(ctx context.Context) {
		s.session.Logout(ctx)
		s.cache.Clear()
	}

	_, err := querycache.Mutate(ctx, s.cache, exec(s.api.Logout), querycache.MutationOptions[struct{}]{
		OnSuccess: func(ctx context.Context, _ struct{}) { end(ctx) },
		OnError:   func(ctx context.Context, _ error) { end(ctx) },
		Success:   toast[struct{}]("Logged out successfully", ""),
	})
	if err != nil {
		s.logger.Warn("Server logout failed, session cleared locally", "error", err)
		return fmt.Errorf("server logout: %w", err)
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: verification token is missing", domain.ErrInvalidInput)
	}
	_, err := querycache.Mutate(ctx, s.cache, exec(func(ctx context.Context) error {
		return s.api.VerifyEmail(ctx, token)
	}), querycache.MutationOptions[struct{}]{
		ErrorTitle:   "Verification failed",
		Unauthorized: "The verification link is invalid or has expired.",
		Success:      toast[struct{}]("Email verified successfully!", "You can now log in to your account."),
	})
	return err
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	_, err := querycache.Mutate(ctx, s.cache, exec(func(ctx context.Context) error {
		return s.api.ResendVerification(ctx, email)
	}), querycache.MutationOptions[struct{}]{
		Success: toast[struct{}]("Verification email sent!", "Please check your inbox."),
	})
	return err
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	_, err := querycache.Mutate(ctx, s.cache, exec(func(ctx context.Context) error {
		return s.api.ForgotPassword(ctx, email)
	}), querycache.MutationOptions[struct{}]{
		Success: toast[struct{}]("Password reset email sent!", "Please check your inbox for instructions."),
	})
	return err
}

// ResetPassword sets a new password from a reset link and sends the user to
// the login page
func (s *AuthService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) (string, error) {
	if err := ValidateResetPassword(req); err != nil {
		return "", err
	}
	_, err := querycache.Mutate(ctx, s.cache, exec(func(ctx context.Context) error {
		return s.api.ResetPassword(ctx, req.Token, req.NewPassword)
	}), querycache.MutationOptions[struct{}]{
		ErrorTitle:   "Password reset failed",
		Unauthorized: "The reset link is invalid or has expired.",
		Success:      toast[struct{}]("Password reset successfully!", "You can now log in with your new password."),
	})
	if err != nil {
		return "", err
	}
	return routes.Login, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	if !s.session.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	if err := ValidateChangePassword(req); err != nil {
		return err
	}
	_, err := querycache.Mutate(ctx, s.cache, exec(func(ctx context.Context) error {
		return s.api.ChangePassword(ctx, req)
	}), querycache.MutationOptions[struct{}]{
		Success: toast[struct{}]("Password changed successfully!", ""),
	})
	return err
}

// CurrentUser returns the profile of the logged-in user, from cache while
// it is younger than ProfileStaleTime. It is idle while nobody is logged in.
func (s *AuthService) CurrentUser(ctx context.Context) querycache.Result[domain.User] {
	return querycache.Query(ctx, s.cache, querycache.Keys.Auth.Profile(), s.fetchProfile, s.profileOptions())
}

// UpdateProfile saves the profile and patches the session user with the
// fields that were sent
func (s *AuthService) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (domain.User, error) {
	if !s.session.IsAuthenticated() {
		return domain.User{}, domain.ErrNotAuthenticated
	}

	return querycache.Mutate(ctx, s.cache, func(ctx context.Context) (domain.User, error) {
		return s.api.UpdateProfile(ctx, req)
	}, querycache.MutationOptions[domain.User]{
		ErrorTitle: "Failed to update profile",
		OnSuccess: func(ctx context.Context, user domain.User) {
			s.session.UpdateUser(req.Patch())
			s.cache.Invalidate(ctx, querycache.Keys.Auth.Profile())
			if user.ID != "" {
				s.cache.Invalidate(ctx, querycache.Keys.Users.Detail(user.ID))
			}
		},
		Success: toast[domain.User]("Profile updated successfully!", ""),
	})
}

// exec adapts a call without a result to Mutate
func exec(fn func(context.Context) error) func(context.Context) (struct{}, error) {
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}
}

// toast builds a fixed success notification
func toast[T any](title, description string) func(T) notify.Notification {
	return func(T) notify.Notification {
		return notify.Success(title, description)
	}
}

// IsValidation reports whether err is a form validation failure
func IsValidation(err error) bool {
	var verr *domain.ValidationError
	return errors.As(err, &verr)
}
