package app

import (
	"context"
	"errors"
	"strings"

	"github.com/crucial707/blog-client/internal/models"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AuthForm is the login/register dialog. Email and DisplayName are only sent
// when registering.
type AuthForm struct {
	Username    string `validate:"required"`
	Password    string `validate:"required"`
	Email       string `validate:"omitempty,email"`
	DisplayName string
}

// AuthStage tells which request an Authenticate failure came from.
type AuthStage int

const (
	StageValidate AuthStage = iota
	StageRegister
	StageLogin
	StageSave
)

// AuthError wraps a failed Authenticate call with the stage that failed.
type AuthError struct {
	Stage AuthStage
	Err   error
}

func (e *AuthError) Error() string { return e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

func (a *App) OpenAuth(st ui.State, mode ui.DialogMode) ui.State {
	st.Dialog = mode
	st.AuthError = ""
	return st
}

func (a *App) CloseAuth(st ui.State) ui.State {
	st.Dialog = ui.DialogClosed
	st.AuthError = ""
	return st
}

// Authenticate registers the account when register is set, then logs in with
// the same credentials and persists the token and user together.
func (a *App) Authenticate(ctx context.Context, form AuthForm, register bool) (*models.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	form.DisplayName = strings.TrimSpace(form.DisplayName)
	if err := a.validate.Struct(form); err != nil {
		return nil, &AuthError{Stage: StageValidate, Err: formError(err)}
	}

	if register {
		err := a.API.Register(ctx, models.RegisterRequest{
			Username:    form.Username,
			Email:       form.Email,
			Password:    form.Password,
			DisplayName: form.DisplayName,
		})
		if err != nil {
			return nil, &AuthError{Stage: StageRegister, Err: err}
		}
	}

	resp, err := a.API.Login(ctx, models.LoginRequest{Username: form.Username, Password: form.Password})
	if err != nil {
		return nil, &AuthError{Stage: StageLogin, Err: err}
	}
	if err := a.Store.Save(ctx, resp.Token, resp.User); err != nil {
		return nil, &AuthError{Stage: StageSave, Err: err}
	}
	a.Log.Info("signed in", zap.String("username", resp.User.Username))
	return resp.User, nil
}

// SubmitAuth runs the dialog's action. On failure the dialog stays open with
// the error shown; a failed login after a successful registration leaves the
// dialog in login mode so the account is not registered twice.
func (a *App) SubmitAuth(ctx context.Context, st ui.State, form AuthForm) (ui.State, error) {
	register := st.Dialog == ui.DialogRegister
	if _, err := a.Authenticate(ctx, form, register); err != nil {
		st.AuthError = Message(err)
		var ae *AuthError
		if errors.As(err, &ae) && ae.Stage == StageLogin && register {
			st.Dialog = ui.DialogLogin
		}
		return st, err
	}

	st = a.syncAuth(a.CloseAuth(st))
	st.Notice = ""
	st, _ = a.Refresh(ctx, st)
	return st, nil
}

// Logout clears the token and user. The feed is reloaded so like state no
// longer reflects the old account.
func (a *App) Logout(ctx context.Context, st ui.State) (ui.State, error) {
	if err := a.Store.Clear(ctx); err != nil {
		return st, err
	}
	st = a.syncAuth(st)
	st.Editor = ui.EditorForm{}
	st.Profile = ui.ProfileForm{}
	if st.Tab != ui.TabFeed {
		st = a.SwitchTab(st, ui.TabFeed)
	}
	st, _ = a.LoadFeed(ctx, st)
	return st, nil
}

// SetAPIBase persists a new backend URL and reloads the lists from it.
// Blank input is ignored.
func (a *App) SetAPIBase(ctx context.Context, st ui.State, url string) (ui.State, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return st, nil
	}
	if err := a.Store.SetAPIBase(ctx, url); err != nil {
		return st, err
	}
	st = a.syncAuth(st)
	return a.Refresh(ctx, st)
}

func formError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Email" {
		return errInvalidEmail
	}
	return errMissingCredentials
}
