package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"fundacion/internal/storage"
	"fundacion/pkg/types"

	"github.com/sirupsen/logrus"
)

// headquarterScope returns the headquarter a staff user is confined to. An
// empty id with ok true means every headquarter is visible; ok false means
// the user may not see any beneficiary.
func headquarterScope(user *types.User) (string, bool) {
	if user.Role != types.UserRoleSiteDirector {
		return "", true
	}
	if user.HeadquarterID == nil || *user.HeadquarterID == "" {
		return "", false
	}
	return *user.HeadquarterID, true
}

// beneficiaryForUser loads a beneficiary, hiding those outside the user's
// headquarter.
func (s *Service) beneficiaryForUser(ctx context.Context, user *types.User, id string) (*types.Beneficiary, error) {
	scope, ok := headquarterScope(user)
	if !ok {
		return nil, types.ErrBeneficiaryNotFound
	}

	beneficiary, err := s.beneficiaries.Beneficiary(ctx, id)
	if err != nil {
		return nil, err
	}

	if scope != "" && beneficiary.HeadquarterID != scope {
		return nil, types.ErrBeneficiaryNotFound
	}

	return beneficiary, nil
}

func (s *Service) visibleHeadquarters(ctx context.Context, user *types.User) ([]*types.Headquarter, error) {
	all, err := s.headquarters.AllHeadquarters(ctx)
	if err != nil {
		return nil, err
	}

	scope, ok := headquarterScope(user)
	if !ok {
		return []*types.Headquarter{}, nil
	}
	if scope == "" {
		return all, nil
	}

	visible := make([]*types.Headquarter, 0, 1)
	for _, hq := range all {
		if hq.ID == scope {
			visible = append(visible, hq)
		}
	}
	return visible, nil
}

func (s *Service) handleBeneficiaryList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	data := &types.BeneficiaryListPageData{
		BasePageData: types.BasePageData{Title: "Beneficiarios"},
		Items:        []*types.BeneficiaryListItem{},
		Notice:       r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
	}

	scope, ok := headquarterScope(user)
	if !ok {
		data.Error = "Tu usuario no tiene una sede asignada"
		if err := s.renderTemplate(w, r, "page.beneficiaries", data); err != nil {
			s.logger.WithError(err).Error("failed to render beneficiaries page")
			s.internalServerError(w)
		}
		return
	}

	page, _ := strconv.ParseUint(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	beneficiaries, err := s.beneficiaries.Beneficiaries(ctx, scope, beneficiaryPageSize, (page-1)*beneficiaryPageSize)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch beneficiaries")
		s.internalServerError(w)
		return
	}

	ids := make([]string, 0, len(beneficiaries))
	for _, b := range beneficiaries {
		ids = append(ids, b.ID)
	}

	latest, err := s.evaluations.LatestByBeneficiaryIDs(ctx, ids)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch latest evaluations")
		s.internalServerError(w)
		return
	}

	headquarters, err := s.headquarters.AllHeadquarters(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch headquarters")
		s.internalServerError(w)
		return
	}

	hqNames := make(map[string]string, len(headquarters))
	for _, hq := range headquarters {
		hqNames[hq.ID] = hq.Name
	}

	for _, b := range beneficiaries {
		data.Items = append(data.Items, &types.BeneficiaryListItem{
			Beneficiary:    b,
			Headquarter:    hqNames[b.HeadquarterID],
			LastEvaluation: latest[b.ID],
			PhotoURL:       s.photoURL(ctx, b),
		})
	}

	if err := s.renderTemplate(w, r, "page.beneficiaries", data); err != nil {
		s.logger.WithError(err).Error("failed to render beneficiaries page")
		s.internalServerError(w)
		return
	}
}

// photoURL presigns the beneficiary photo. Failures only cost the thumbnail.
func (s *Service) photoURL(ctx context.Context, b *types.Beneficiary) string {
	if b.PhotoKey == nil || *b.PhotoKey == "" {
		return ""
	}

	u, err := s.photos.URL(ctx, *b.PhotoKey)
	if err != nil {
		s.logger.WithError(err).WithField("beneficiary_id", b.ID).Warn("failed to presign photo")
		return ""
	}
	return u
}

func (s *Service) renderBeneficiaryForm(w http.ResponseWriter, r *http.Request, data *types.BeneficiaryFormPageData, status int) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	headquarters, err := s.visibleHeadquarters(ctx, user)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch headquarters")
		s.internalServerError(w)
		return
	}
	data.Headquarters = headquarters

	if data.Form == nil {
		data.Form = &types.BeneficiaryForm{}
	}
	if data.FieldErrors == nil {
		data.FieldErrors = map[string]string{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderTemplate(w, r, "page.beneficiary-form", data); err != nil {
		s.logger.WithError(err).Error("failed to render beneficiary form")
	}
}

func (s *Service) handleGetBeneficiaryNew(w http.ResponseWriter, r *http.Request) {
	data := &types.BeneficiaryFormPageData{
		BasePageData: types.BasePageData{Title: "Nuevo beneficiario"},
	}

	user, _ := userFromContext(r.Context())
	if scope, _ := headquarterScope(user); scope != "" {
		data.Form = &types.BeneficiaryForm{HeadquarterID: scope}
	}

	s.renderBeneficiaryForm(w, r, data, http.StatusOK)
}

func (s *Service) decodeBeneficiaryForm(r *http.Request, user *types.User) (*types.BeneficiaryForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}

	var f = new(types.BeneficiaryForm)
	if err := decoder.Decode(f, r.PostForm); err != nil {
		return nil, err
	}

	if scope, _ := headquarterScope(user); scope != "" {
		f.HeadquarterID = scope
	}

	return f, nil
}

func (s *Service) handlePostBeneficiaryNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	if _, ok := headquarterScope(user); !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	f, err := s.decodeBeneficiaryForm(r, user)
	if err != nil {
		s.logger.WithError(err).Error("failed to decode beneficiary form")
		s.redirectWithError(w, r, "/admin/beneficiaries/new", "Formulario inválido")
		return
	}

	beneficiary := &types.Beneficiary{IsActive: true}
	if err := beneficiaryFromForm(s.validate, f, beneficiary); err != nil {
		s.renderBeneficiaryForm(w, r, &types.BeneficiaryFormPageData{
			BasePageData: types.BasePageData{Title: "Nuevo beneficiario"},
			Form:         f,
			FieldErrors:  fieldErrors(err),
			Error:        "Revisa los campos marcados",
		}, http.StatusUnprocessableEntity)
		return
	}

	if err := s.beneficiaries.CreateBeneficiary(ctx, beneficiary); err != nil {
		s.logger.WithError(err).Error("failed to create beneficiary")
		s.internalServerError(w)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"beneficiary_id": beneficiary.ID,
		"user_id":        user.ID,
		"performance":    beneficiary.Performance,
	}).Info("beneficiary created")

	s.redirectWithNotice(w, r, "/admin/beneficiaries/"+beneficiary.ID, "Beneficiario creado")
}

func (s *Service) handleGetBeneficiaryEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")

	beneficiary, ok := s.lookupBeneficiary(w, r, user, id)
	if !ok {
		return
	}

	f, err := beneficiaryForm(beneficiary)
	if err != nil {
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to decode beneficiary details")
		s.internalServerError(w)
		return
	}

	evaluations, err := s.evaluations.EvaluationsByBeneficiary(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to fetch evaluations")
		s.internalServerError(w)
		return
	}

	s.renderBeneficiaryForm(w, r, &types.BeneficiaryFormPageData{
		BasePageData: types.BasePageData{Title: beneficiary.FullName()},
		ID:           beneficiary.ID,
		Form:         f,
		Evaluations:  evaluations,
		PhotoURL:     s.photoURL(ctx, beneficiary),
		Notice:       r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
	}, http.StatusOK)
}

// lookupBeneficiary writes the not found or error response itself and
// reports whether the handler should continue.
func (s *Service) lookupBeneficiary(w http.ResponseWriter, r *http.Request, user *types.User, id string) (*types.Beneficiary, bool) {
	beneficiary, err := s.beneficiaryForUser(r.Context(), user, id)
	if err != nil {
		if errors.Is(err, types.ErrBeneficiaryNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to fetch beneficiary")
		s.internalServerError(w)
		return nil, false
	}
	return beneficiary, true
}

func (s *Service) handlePostBeneficiaryEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")

	beneficiary, ok := s.lookupBeneficiary(w, r, user, id)
	if !ok {
		return
	}

	f, err := s.decodeBeneficiaryForm(r, user)
	if err != nil {
		s.logger.WithError(err).Error("failed to decode beneficiary form")
		s.redirectWithError(w, r, "/admin/beneficiaries/"+id, "Formulario inválido")
		return
	}

	if err := beneficiaryFromForm(s.validate, f, beneficiary); err != nil {
		s.renderBeneficiaryForm(w, r, &types.BeneficiaryFormPageData{
			BasePageData: types.BasePageData{Title: beneficiary.FullName()},
			ID:           id,
			Form:         f,
			PhotoURL:     s.photoURL(ctx, beneficiary),
			FieldErrors:  fieldErrors(err),
			Error:        "Revisa los campos marcados",
		}, http.StatusUnprocessableEntity)
		return
	}

	if err := s.beneficiaries.UpdateBeneficiary(ctx, id, beneficiary); err != nil {
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to update beneficiary")
		s.internalServerError(w)
		return
	}

	s.redirectWithNotice(w, r, "/admin/beneficiaries/"+id, "Cambios guardados")
}

func (s *Service) handlePostBeneficiaryPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")
	returnPath := "/admin/beneficiaries/" + id

	beneficiary, ok := s.lookupBeneficiary(w, r, user, id)
	if !ok {
		return
	}

	limit := s.config.MaxPhotoSizeBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		s.metrics.PhotoUpload(err)
		s.redirectWithError(w, r, returnPath, "La foto es demasiado grande")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		s.redirectWithError(w, r, returnPath, "Selecciona una foto")
		return
	}
	defer file.Close()

	data, err := storage.ReadPhoto(file, limit)
	if err != nil {
		s.metrics.PhotoUpload(err)
		s.redirectWithError(w, r, returnPath, "La foto es demasiado grande")
		return
	}

	key, err := s.photos.Upload(ctx, beneficiary.ID, data)
	s.metrics.PhotoUpload(err)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedPhoto) {
			s.redirectWithError(w, r, returnPath, "Formato no soportado, usa JPG, PNG o WEBP")
			return
		}
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to upload photo")
		s.internalServerError(w)
		return
	}

	if err := s.beneficiaries.SetPhotoKey(ctx, beneficiary.ID, key); err != nil {
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to store photo key")
		s.internalServerError(w)
		return
	}

	if beneficiary.PhotoKey != nil && *beneficiary.PhotoKey != "" {
		if err := s.photos.Delete(ctx, *beneficiary.PhotoKey); err != nil {
			s.logger.WithError(err).WithField("key", *beneficiary.PhotoKey).Warn("failed to delete previous photo")
		}
	}

	s.redirectWithNotice(w, r, returnPath, "Foto actualizada")
}

func (s *Service) handlePostBeneficiaryDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")

	beneficiary, ok := s.lookupBeneficiary(w, r, user, id)
	if !ok {
		return
	}

	if err := s.beneficiaries.DeleteBeneficiary(ctx, beneficiary.ID); err != nil {
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to delete beneficiary")
		s.internalServerError(w)
		return
	}

	if beneficiary.PhotoKey != nil && *beneficiary.PhotoKey != "" {
		if err := s.photos.Delete(ctx, *beneficiary.PhotoKey); err != nil {
			s.logger.WithError(err).WithField("key", *beneficiary.PhotoKey).Warn("failed to delete photo")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"beneficiary_id": id,
		"user_id":        user.ID,
	}).Info("beneficiary deleted")

	s.redirectWithNotice(w, r, "/admin/beneficiaries", "Beneficiario eliminado")
}

// handlePostEvaluation records a dated evaluation and makes it the
// beneficiary's current state.
func (s *Service) handlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")
	returnPath := "/admin/beneficiaries/" + id

	beneficiary, ok := s.lookupBeneficiary(w, r, user, id)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, returnPath, "Formulario inválido")
		return
	}

	var f = new(types.EvaluationForm)
	if err := decoder.Decode(f, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode evaluation form")
		s.redirectWithError(w, r, returnPath, "Formulario inválido")
		return
	}

	evaluation, details, err := evaluationFromForm(s.validate, f, beneficiary.ID, user.ID)
	if err != nil {
		s.redirectWithError(w, r, returnPath, "Evaluación inválida: las calificaciones van de 1 a 5")
		return
	}

	if err := s.evaluations.CreateEvaluation(ctx, evaluation); err != nil {
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to create evaluation")
		s.internalServerError(w)
		return
	}
	s.metrics.EvaluationRecorded()

	beneficiary.Performance = evaluation.Performance
	if err := beneficiary.SetDetails(details); err != nil {
		s.logger.WithError(err).Error("failed to encode beneficiary details")
		s.internalServerError(w)
		return
	}
	if err := s.beneficiaries.UpdateBeneficiary(ctx, beneficiary.ID, beneficiary); err != nil {
		s.logger.WithError(err).WithField("beneficiary_id", id).Error("failed to update beneficiary after evaluation")
		s.internalServerError(w)
		return
	}

	s.redirectWithNotice(w, r, returnPath, "Evaluación registrada")
}
