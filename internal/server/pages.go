package server

import (
	"context"
	"errors"
	"net/http"

	"fundacion/internal/stats"
	"fundacion/pkg/types"
)

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := s.projects.Projects(ctx, types.ProjectStatusActive)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch active projects")
		s.internalServerError(w)
		return
	}

	cards, err := s.projectCards(ctx, projects)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch project totals")
		s.internalServerError(w)
		return
	}

	data := &types.HomePageData{
		BasePageData: types.BasePageData{Title: "Proyectos"},
		Notice:       r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
		Projects:     cards,
	}

	if err := s.renderTemplate(w, r, "page.home", data); err != nil {
		s.logger.WithError(err).Error("failed to render home page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) projectCards(ctx context.Context, projects []*types.Project) ([]*types.ProjectCard, error) {
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	totals, err := s.donations.RaisedTotalsByProjects(ctx, ids)
	if err != nil {
		return nil, err
	}

	cards := make([]*types.ProjectCard, 0, len(projects))
	for _, p := range projects {
		cards = append(cards, projectCard(p, totals[p.ID]))
	}

	return cards, nil
}

func projectCard(project *types.Project, raised float64) *types.ProjectCard {
	return &types.ProjectCard{
		Project:  project,
		Raised:   raised,
		Progress: stats.Progress(raised, project.FinanceGoal),
		HasGoal:  project.FinanceGoal > 0,
	}
}

func (s *Service) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := r.PathValue("id")

	project, err := s.projects.Project(ctx, projectID)
	if err != nil {
		if errors.Is(err, types.ErrProjectNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).WithField("project_id", projectID).Error("failed to fetch project")
		s.internalServerError(w)
		return
	}

	raised, err := s.donations.ProjectRaisedTotal(ctx, project.ID)
	if err != nil {
		s.logger.WithError(err).WithField("project_id", projectID).Error("failed to fetch project total")
		s.internalServerError(w)
		return
	}

	data := &types.ProjectDetailPageData{
		BasePageData: types.BasePageData{Title: project.Name},
		Card:         projectCard(project, raised),
		Notice:       r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
	}

	if err := s.renderTemplate(w, r, "page.project-detail", data); err != nil {
		s.logger.WithError(err).Error("failed to render project detail page")
		s.internalServerError(w)
		return
	}
}

// handleDashboard sends each role to its landing page.
func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	switch user.Role {
	case types.UserRoleAdmin, types.UserRoleDirector:
		http.Redirect(w, r, "/admin/projects", http.StatusSeeOther)
	case types.UserRoleSiteDirector:
		http.Redirect(w, r, "/admin/beneficiaries", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/dashboard/donations", http.StatusSeeOther)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
