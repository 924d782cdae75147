package server

import (
	"errors"
	"net/http"
	"strings"

	"fundacion/internal/stats"
	"fundacion/pkg/types"

	"github.com/sirupsen/logrus"
)

func (s *Service) handleGetProjectsAdmin(w http.ResponseWriter, r *http.Request) {
	s.renderProjectsAdmin(w, r, nil, http.StatusOK)
}

func (s *Service) renderProjectsAdmin(w http.ResponseWriter, r *http.Request, fieldErrs map[string]string, status int) {
	ctx := r.Context()

	projects, err := s.projects.Projects(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch projects")
		s.internalServerError(w)
		return
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	totals, err := s.donations.RaisedTotalsByProjects(ctx, ids)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch project totals")
		s.internalServerError(w)
		return
	}

	counts, err := s.members.CountsByProject(ctx, ids)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch project beneficiary counts")
		s.internalServerError(w)
		return
	}

	headquarters, err := s.headquarters.AllHeadquarters(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch headquarters")
		s.internalServerError(w)
		return
	}

	rows := make([]*types.ProjectAdminRow, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, &types.ProjectAdminRow{
			Project:       p,
			Raised:        totals[p.ID],
			Progress:      stats.Progress(totals[p.ID], p.FinanceGoal),
			Beneficiaries: counts[p.ID],
		})
	}

	if fieldErrs == nil {
		fieldErrs = map[string]string{}
	}

	data := &types.ProjectsAdminPageData{
		BasePageData: types.BasePageData{Title: "Proyectos"},
		Rows:         rows,
		Headquarters: headquarters,
		FieldErrors:  fieldErrs,
		Notice:       r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
	}
	if len(fieldErrs) > 0 {
		data.Error = "Revisa los campos marcados"
	}

	w.WriteHeader(status)
	if err := s.renderTemplate(w, r, "page.admin-projects", data); err != nil {
		s.logger.WithError(err).Error("failed to render projects admin page")
	}
}

func (s *Service) handlePostProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/admin/projects", "Formulario inválido")
		return
	}

	var f = new(types.ProjectForm)
	if err := decoder.Decode(f, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode project form")
		s.redirectWithError(w, r, "/admin/projects", "Formulario inválido")
		return
	}

	project, err := projectFromForm(s.validate, f)
	if err != nil {
		s.renderProjectsAdmin(w, r, fieldErrors(err), http.StatusUnprocessableEntity)
		return
	}

	if err := s.projects.CreateProject(ctx, project); err != nil {
		s.logger.WithError(err).Error("failed to create project")
		s.internalServerError(w)
		return
	}

	s.logger.WithField("project_id", project.ID).Info("project created")
	s.redirectWithNotice(w, r, "/admin/projects", "Proyecto creado")
}

func (s *Service) handlePostProjectStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	status := types.ProjectStatus(r.FormValue("status"))
	switch status {
	case types.ProjectStatusActive, types.ProjectStatusPaused, types.ProjectStatusFinished:
	default:
		s.redirectWithError(w, r, "/admin/projects", "Estado no válido")
		return
	}

	if _, err := s.projects.Project(ctx, id); err != nil {
		if errors.Is(err, types.ErrProjectNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).WithField("project_id", id).Error("failed to fetch project")
		s.internalServerError(w)
		return
	}

	if err := s.projects.SetProjectStatus(ctx, id, status); err != nil {
		s.logger.WithError(err).WithField("project_id", id).Error("failed to update project status")
		s.internalServerError(w)
		return
	}

	s.redirectWithNotice(w, r, "/admin/projects", "Estado actualizado")
}

func (s *Service) handlePostProjectBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/admin/projects", "Formulario inválido")
		return
	}

	var f = new(types.ProjectBeneficiaryForm)
	if err := decoder.Decode(f, r.PostForm); err != nil || s.validate.Struct(f) != nil {
		s.redirectWithError(w, r, "/admin/projects", "Indica el beneficiario")
		return
	}

	if _, err := s.projects.Project(ctx, projectID); err != nil {
		if errors.Is(err, types.ErrProjectNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).WithField("project_id", projectID).Error("failed to fetch project")
		s.internalServerError(w)
		return
	}

	if _, err := s.beneficiaries.Beneficiary(ctx, f.BeneficiaryID); err != nil {
		if errors.Is(err, types.ErrBeneficiaryNotFound) {
			s.redirectWithError(w, r, "/admin/projects", "Beneficiario no encontrado")
			return
		}
		s.logger.WithError(err).WithField("beneficiary_id", f.BeneficiaryID).Error("failed to fetch beneficiary")
		s.internalServerError(w)
		return
	}

	if err := s.members.LinkBeneficiary(ctx, projectID, f.BeneficiaryID); err != nil {
		s.logger.WithError(err).Error("failed to link beneficiary to project")
		s.internalServerError(w)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"project_id":     projectID,
		"beneficiary_id": f.BeneficiaryID,
	}).Info("beneficiary linked to project")

	s.redirectWithNotice(w, r, "/admin/projects", "Beneficiario vinculado")
}

func (s *Service) handleGetHeadquartersAdmin(w http.ResponseWriter, r *http.Request) {
	s.renderHeadquartersAdmin(w, r, nil, http.StatusOK)
}

func (s *Service) renderHeadquartersAdmin(w http.ResponseWriter, r *http.Request, fieldErrs map[string]string, status int) {
	ctx := r.Context()

	headquarters, err := s.headquarters.AllHeadquarters(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch headquarters")
		s.internalServerError(w)
		return
	}

	directors, err := s.users.UsersByRole(ctx, types.UserRoleDirector, types.UserRoleSiteDirector)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch directors")
		s.internalServerError(w)
		return
	}

	if fieldErrs == nil {
		fieldErrs = map[string]string{}
	}

	data := &types.HeadquartersAdminPageData{
		BasePageData: types.BasePageData{Title: "Sedes"},
		Headquarters: headquarters,
		Directors:    directors,
		FieldErrors:  fieldErrs,
		Notice:       r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
	}
	if len(fieldErrs) > 0 {
		data.Error = "Revisa los campos marcados"
	}

	w.WriteHeader(status)
	if err := s.renderTemplate(w, r, "page.admin-headquarters", data); err != nil {
		s.logger.WithError(err).Error("failed to render headquarters admin page")
	}
}

func (s *Service) handlePostHeadquarter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/admin/headquarters", "Formulario inválido")
		return
	}

	var f = new(types.HeadquarterForm)
	if err := decoder.Decode(f, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode headquarter form")
		s.redirectWithError(w, r, "/admin/headquarters", "Formulario inválido")
		return
	}

	if err := s.validate.Struct(f); err != nil {
		s.renderHeadquartersAdmin(w, r, fieldErrors(err), http.StatusUnprocessableEntity)
		return
	}

	hq := &types.Headquarter{
		Name:       strings.TrimSpace(f.Name),
		City:       strings.TrimSpace(f.City),
		Address:    optionalString(f.Address),
		DirectorID: optionalString(f.DirectorID),
		IsActive:   true,
	}

	if err := s.headquarters.CreateHeadquarter(ctx, hq); err != nil {
		s.logger.WithError(err).Error("failed to create headquarter")
		s.internalServerError(w)
		return
	}

	s.logger.WithField("headquarter_id", hq.ID).Info("headquarter created")
	s.redirectWithNotice(w, r, "/admin/headquarters", "Sede creada")
}
