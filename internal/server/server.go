package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"fundacion/internal/metrics"
	"fundacion/internal/stats"
	"fundacion/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

const beneficiaryPageSize = 50

type Dependencies struct {
	Users         UserStore
	Headquarters  HeadquarterStore
	Beneficiaries BeneficiaryStore
	Evaluations   EvaluationStore
	Projects      ProjectStore
	Members       MemberStore
	Donations     DonationStore

	Photos   PhotoStore
	Checkout CheckoutService
	Cognito  CognitoAuth
	Tokens   TokenVerifier
	Metrics  *metrics.Registry
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	templates *template.Template
	cookie    *securecookie.SecureCookie
	validate  *validator.Validate

	users         UserStore
	headquarters  HeadquarterStore
	beneficiaries BeneficiaryStore
	evaluations   EvaluationStore
	projects      ProjectStore
	members       MemberStore
	donations     DonationStore
	aggregator    *stats.Aggregator

	photos   PhotoStore
	checkout CheckoutService
	cognito  CognitoAuth
	tokens   TokenVerifier
	metrics  *metrics.Registry

	handler http.Handler
	server  *http.Server
}

func New(config *types.Config, logger *logrus.Logger, deps Dependencies) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie block key: %w", err)
	}

	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	s := &Service{
		logger:   logger,
		config:   config,
		cookie:   securecookie.New(hashKey, blockKey),
		validate: newValidator(),

		users:         deps.Users,
		headquarters:  deps.Headquarters,
		beneficiaries: deps.Beneficiaries,
		evaluations:   deps.Evaluations,
		projects:      deps.Projects,
		members:       deps.Members,
		donations:     deps.Donations,
		aggregator:    stats.NewAggregator(deps.Donations, deps.Members),

		photos:   deps.Photos,
		checkout: deps.Checkout,
		cognito:  deps.Cognito,
		tokens:   deps.Tokens,
		metrics:  deps.Metrics,

		handler: mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/projects/:id", s.handleProjectDetail, http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler(), http.MethodGet)

	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

	r.HandleFunc("/webhooks/stripe", s.handleStripeWebhook, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/dashboard", s.handleDashboard, http.MethodGet)
		r.HandleFunc("/dashboard/donations", s.handleDonorDashboard, http.MethodGet)
		r.HandleFunc("/donate", s.handlePostDonate, http.MethodPost)
		r.HandleFunc("/projects/:id/donate", s.handlePostDonate, http.MethodPost)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(types.UserRoleAdmin, types.UserRoleDirector, types.UserRoleSiteDirector))

			r.HandleFunc("/admin/beneficiaries", s.handleBeneficiaryList, http.MethodGet)
			r.HandleFunc("/admin/beneficiaries/new", s.handleGetBeneficiaryNew, http.MethodGet)
			r.HandleFunc("/admin/beneficiaries/new", s.handlePostBeneficiaryNew, http.MethodPost)
			r.HandleFunc("/admin/beneficiaries/:id", s.handleGetBeneficiaryEdit, http.MethodGet)
			r.HandleFunc("/admin/beneficiaries/:id", s.handlePostBeneficiaryEdit, http.MethodPost)
			r.HandleFunc("/admin/beneficiaries/:id/photo", s.handlePostBeneficiaryPhoto, http.MethodPost)
			r.HandleFunc("/admin/beneficiaries/:id/delete", s.handlePostBeneficiaryDelete, http.MethodPost)
			r.HandleFunc("/admin/beneficiaries/:id/evaluations", s.handlePostEvaluation, http.MethodPost)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(types.UserRoleAdmin, types.UserRoleDirector))

			r.HandleFunc("/admin/projects", s.handleGetProjectsAdmin, http.MethodGet)
			r.HandleFunc("/admin/projects", s.handlePostProject, http.MethodPost)
			r.HandleFunc("/admin/projects/:id/status", s.handlePostProjectStatus, http.MethodPost)
			r.HandleFunc("/admin/projects/:id/beneficiaries", s.handlePostProjectBeneficiary, http.MethodPost)
			r.HandleFunc("/admin/headquarters", s.handleGetHeadquartersAdmin, http.MethodGet)
			r.HandleFunc("/admin/headquarters", s.handlePostHeadquarter, http.MethodPost)
		})
	})

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"money": formatMoney,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefOr": func(s *string, defaultVal string) string {
			if s == nil || *s == "" {
				return defaultVal
			}
			return *s
		},
		"intOr": func(i *int) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("%d", *i)
		},
		"floatOr": func(f *float64) string {
			if f == nil {
				return ""
			}
			return fmt.Sprintf("%.1f", *f)
		},
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict needs key/value pairs, got %d values", len(pairs))
			}
			out := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
				}
				out[key] = pairs[i+1]
			}
			return out, nil
		},
		"ratingOptions": func() []int { return []int{1, 2, 3, 4, 5} },
		"isSelected": func(v *int, option int) bool {
			return v != nil && *v == option
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// formatMoney renders an amount with thousands separators and no decimals
// when the value is whole.
func formatMoney(amount float64) string {
	whole := fmt.Sprintf("%.2f", amount)
	whole = strings.TrimSuffix(whole, ".00")

	intPart, frac, hasFrac := strings.Cut(whole, ".")
	negative := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := "$" + b.String()
	if hasFrac {
		out += "." + frac
	}
	if negative {
		out = "-" + out
	}
	return out
}
