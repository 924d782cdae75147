package server

import (
	"net/http"
	"time"

	"fundacion/pkg/types"
)

func (s *Service) handleDonorDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := userFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	rows, err := s.donations.DonationsByUser(ctx, user.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to fetch donations")
		s.internalServerError(w)
		return
	}

	started := time.Now()
	donationStats, err := s.aggregator.ComputeRows(ctx, rows)
	s.metrics.ObserveStats(time.Since(started), err)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to compute donation stats")
		s.internalServerError(w)
		return
	}

	data := &types.DonorDashboardPageData{
		BasePageData: types.BasePageData{Title: "Mis donaciones"},
		Stats:        donationStats,
		Notice:       r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
	}

	if err := s.renderTemplate(w, r, "page.donor-dashboard", data); err != nil {
		s.logger.WithError(err).Error("failed to render donor dashboard")
		s.internalServerError(w)
		return
	}
}
