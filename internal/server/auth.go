package server

import (
	"net/http"
	"strings"
	"time"

	"fundacion/internal"
	"fundacion/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	_, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err == nil {
		s.logger.Debug("user is already logged in, redirecting to dashboard")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Ingresar"},
		Message:      r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
	}

	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		s.renderLoginError(w, r, email, "Correo y contraseña son obligatorios")
		return
	}

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: cognitotypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	}

	resp, err := s.cognito.InitiateAuth(ctx, input)
	if err != nil {
		// NotAuthorizedException, UserNotConfirmedException, etc.
		s.logger.WithError(err).Info("login rejected")
		s.renderLoginError(w, r, email, "Credenciales inválidas")
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		s.renderLoginError(w, r, email, "No fue posible iniciar sesión")
		return
	}

	accessToken := aws.ToString(resp.AuthenticationResult.AccessToken)
	expiresIn := int(resp.AuthenticationResult.ExpiresIn)

	// The id token carries the profile claims the access token lacks.
	if idToken := aws.ToString(resp.AuthenticationResult.IdToken); idToken != "" {
		identity, err := s.tokens.Verify(ctx, idToken)
		if err != nil {
			s.logger.WithError(err).Warn("failed to verify id token")
		} else {
			if identity.Email == "" {
				identity.Email = email
			}
			err = s.users.UpsertIdentity(ctx, identity.UserID, identity.Email, identity.GivenName, identity.FamilyName)
			if err != nil {
				s.logger.WithError(err).Error("failed to record user identity")
				s.internalServerError(w)
				return
			}
		}
	}

	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, accessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.internalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   expiresIn,
		Path:     "/",
	})

	redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME)
	if err == nil && strings.HasPrefix(redirectCookie.Value, "/") && !strings.HasPrefix(redirectCookie.Value, "//") {
		s.clearRedirectCookie(w)
		http.Redirect(w, r, redirectCookie.Value, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Service) renderLoginError(w http.ResponseWriter, r *http.Request, email, msg string) {
	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Ingresar"},
		Error:        msg,
		Email:        email,
	}

	w.WriteHeader(http.StatusUnauthorized)
	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
	}
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAccessCookie(w)
	http.Redirect(w, r, "/?notice=Sesi%C3%B3n+cerrada", http.StatusSeeOther)
}

func (s *Service) secureCookies() bool {
	return s.config.Environment != "development"
}

func (s *Service) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    path,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearRedirectCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
