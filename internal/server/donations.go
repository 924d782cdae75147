package server

import (
	"errors"
	"io"
	"net/http"

	"fundacion/internal/payments"
	"fundacion/pkg/types"

	"github.com/sirupsen/logrus"
)

const maxWebhookBytes = 65536

// handlePostDonate records a pending donation and hands the donor to Stripe
// Checkout. Without a project id the donation goes to the general fund.
func (s *Service) handlePostDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := userFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	projectID := r.PathValue("id")
	returnPath := "/dashboard/donations"
	if projectID != "" {
		returnPath = "/projects/" + projectID
	}

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, returnPath, "Formulario inválido")
		return
	}

	var donationForm = new(types.DonationForm)
	if err := decoder.Decode(donationForm, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode donation form")
		s.redirectWithError(w, r, returnPath, "Formulario inválido")
		return
	}

	amount, err := parseDonationForm(s.validate, donationForm)
	if err != nil {
		s.redirectWithError(w, r, returnPath, "Ingresa un monto válido mayor a cero")
		return
	}

	description := "Fondo general"
	donation := &types.Donation{
		UserID: user.ID,
		Amount: amount,
		Status: types.DonationStatusPending,
	}

	if projectID != "" {
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
		if project.Status != types.ProjectStatusActive {
			s.redirectWithError(w, r, returnPath, "Este proyecto no está recibiendo donaciones")
			return
		}

		donation.ProjectID = &project.ID
		description = project.Name
	}

	if err := s.donations.CreateDonation(ctx, donation); err != nil {
		s.logger.WithError(err).Error("failed to create donation")
		s.internalServerError(w)
		return
	}
	s.metrics.DonationStatus(string(types.DonationStatusPending))

	entry := s.logger.WithFields(logrus.Fields{
		"donation_id": donation.ID,
		"user_id":     user.ID,
	})

	session, err := s.checkout.CreateSession(ctx, donation, description)
	if err != nil {
		entry.WithError(err).Error("failed to create checkout session")
		if _, err := s.donations.UpdateStatus(ctx, donation.ID, types.DonationStatusFailed); err != nil {
			entry.WithError(err).Error("failed to mark donation as failed")
		} else {
			s.metrics.DonationStatus(string(types.DonationStatusFailed))
		}
		s.redirectWithError(w, r, returnPath, "No fue posible iniciar el pago, intenta de nuevo")
		return
	}

	if err := s.donations.SetPaymentReference(ctx, donation.ID, session.ID); err != nil {
		entry.WithError(err).Error("failed to store payment reference")
		s.internalServerError(w)
		return
	}

	entry.WithField("session_id", session.ID).Info("checkout session created")
	http.Redirect(w, r, session.URL, http.StatusSeeOther)
}

// handleStripeWebhook applies checkout outcomes to donations. Events that
// cannot be matched are acknowledged so Stripe stops retrying them.
func (s *Service) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	result, err := payments.ParseWebhook(payload, r.Header.Get("Stripe-Signature"), s.config.StripeWebhookSecret)
	if err != nil {
		s.logger.WithError(err).Warn("rejected stripe webhook")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	s.metrics.WebhookEvent(result.EventType, result.Handled)
	if !result.Handled {
		w.WriteHeader(http.StatusOK)
		return
	}

	entry := s.logger.WithFields(logrus.Fields{
		"event_type": result.EventType,
		"reference":  result.Reference,
	})

	donation, err := s.donations.DonationByPaymentReference(ctx, result.Reference)
	if err != nil {
		if errors.Is(err, types.ErrDonationNotFound) {
			entry.Warn("webhook for unknown donation")
			w.WriteHeader(http.StatusOK)
			return
		}
		entry.WithError(err).Error("failed to fetch donation for webhook")
		s.internalServerError(w)
		return
	}

	changed, err := s.donations.UpdateStatus(ctx, donation.ID, result.Status)
	if err != nil {
		entry.WithError(err).Error("failed to update donation status")
		s.internalServerError(w)
		return
	}

	if changed {
		s.metrics.DonationStatus(string(result.Status))
		entry.WithField("status", result.Status).Info("donation status updated")
	} else {
		entry.Info("donation already final, webhook ignored")
	}

	w.WriteHeader(http.StatusOK)
}
