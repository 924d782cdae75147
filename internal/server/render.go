package server

import (
	"net/http"
	"net/url"

	"fundacion/internal/utils"
	"fundacion/pkg/types"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	if setter, ok := data.(types.NavbarDataSetter); ok {
		navbar := types.NavbarData{}
		if user, ok := userFromContext(r.Context()); ok {
			navbar.IsAuthenticated = true
			navbar.UserID = user.ID
			navbar.UserEmail = utils.PtrString(user.Email)
			navbar.Role = user.Role
		}
		setter.SetNavbarData(navbar)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.templates.ExecuteTemplate(w, templateName, data)
}

// redirectWith sends the browser to path with a notice or error message in
// the query string.
func (s *Service) redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	v := url.Values{}
	v.Set(key, msg)
	http.Redirect(w, r, path+"?"+v.Encode(), http.StatusSeeOther)
}

func (s *Service) redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	s.redirectWith(w, r, path, "notice", notice)
}

func (s *Service) redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	s.redirectWith(w, r, path, "error", msg)
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
