package v1

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/auth"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/security"
	"github.com/forptiter/study-assistant/pkg/types"
	"github.com/forptiter/study-assistant/pkg/utils"
)

type AuthLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewAuthLogic(ctx context.Context, core *core.Core) *AuthLogic {
	return &AuthLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *AuthLogic) secret() []byte {
	return []byte(l.core.Cfg().Auth.JWTSecret)
}

// establish checks the session's access token, then caches and persists the user.
func (l *AuthLogic) establish(trace string, session *auth.Session) (*types.User, error) {
	user := session.ToUser(time.Now())

	claims, err := security.ParseToken(user.AccessToken, l.secret())
	if err != nil {
		return nil, errors.New(trace+".security.ParseToken", i18n.ERROR_UNAUTHORIZED, err).Kind(errors.KindInvalidArgument)
	}
	if user.ID == "" {
		user.ID = claims.GetUser()
	}
	if user.Email == "" {
		user.Email = claims.Email
	}

	if err = auth.CacheUser(l.ctx, user, l.core.Cache()); err != nil {
		slog.Warn("failed to cache user", slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}
	if path := l.core.Cfg().Auth.SessionFile; path != "" {
		if err = auth.SaveSessionFile(path, user); err != nil {
			slog.Warn("failed to save session file", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	slog.Info("signed in", slog.String("user_id", user.ID), slog.String("email", utils.MaskString(user.Email, 2, 4)))
	return &user, nil
}

func (l *AuthLogic) SignIn(email, password string) (*types.User, error) {
	session, err := l.core.Auth().SignIn(l.ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, errors.New("AuthLogic.SignIn.Auth.SignIn", i18n.ERROR_LOGIN_FAILED, err).Kind(errors.KindTransport)
	}
	return l.establish("AuthLogic.SignIn", session)
}

// SignUp registers the user. The returned user is nil when the email still needs
// to be confirmed before signing in.
func (l *AuthLogic) SignUp(email, password string) (*types.User, error) {
	session, err := l.core.Auth().SignUp(l.ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, errors.New("AuthLogic.SignUp.Auth.SignUp", i18n.ERROR_LOGIN_FAILED, err).Kind(errors.KindTransport)
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return l.establish("AuthLogic.SignUp", session)
}

// CurrentUser restores the saved user, refreshing the access token when it expired.
func (l *AuthLogic) CurrentUser() (*types.User, error) {
	path := l.core.Cfg().Auth.SessionFile
	if path == "" {
		return nil, errors.New("AuthLogic.CurrentUser.path", i18n.ERROR_UNAUTHORIZED, nil).Kind(errors.KindInvalidArgument)
	}
	user, err := auth.LoadSessionFile(path)
	if err != nil {
		return nil, errors.New("AuthLogic.CurrentUser.LoadSessionFile", i18n.ERROR_UNAUTHORIZED, err).Kind(errors.KindInvalidArgument)
	}
	if user == nil {
		return nil, errors.New("AuthLogic.CurrentUser.nil", i18n.ERROR_UNAUTHORIZED, nil).Kind(errors.KindInvalidArgument)
	}

	if cached, err := auth.UserFromCache(l.ctx, user.AccessToken, l.core.Cache()); err == nil && cached != nil {
		return cached, nil
	}

	if !user.Expired(time.Now()) {
		if _, err = security.ParseToken(user.AccessToken, l.secret()); err == nil {
			return user, nil
		}
	}
	if user.RefreshToken == "" {
		return nil, errors.New("AuthLogic.CurrentUser.expired", i18n.ERROR_UNAUTHORIZED, nil).Kind(errors.KindInvalidArgument)
	}

	session, err := l.core.Auth().Refresh(l.ctx, user.RefreshToken)
	if err != nil {
		return nil, errors.New("AuthLogic.CurrentUser.Auth.Refresh", i18n.ERROR_UNAUTHORIZED, err).Kind(errors.KindTransport)
	}
	return l.establish("AuthLogic.CurrentUser", session)
}

// SignOut revokes the saved session and removes it locally even if revoking fails.
func (l *AuthLogic) SignOut() error {
	path := l.core.Cfg().Auth.SessionFile
	if path == "" {
		return nil
	}
	user, err := auth.LoadSessionFile(path)
	if err != nil {
		return errors.New("AuthLogic.SignOut.LoadSessionFile", i18n.ERROR_INTERNAL, err)
	}
	if user == nil {
		return nil
	}

	if err = l.core.Auth().SignOut(l.ctx, user.AccessToken); err != nil {
		slog.Warn("failed to revoke session", slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}
	if err = auth.RemoveSessionFile(path); err != nil {
		return errors.New("AuthLogic.SignOut.RemoveSessionFile", i18n.ERROR_INTERNAL, err)
	}
	return nil
}
