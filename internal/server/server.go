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

	"viewfir/internal/auth"
	"viewfir/internal/record"
	"viewfir/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

// OTPAuthenticator is the slice of the auth client the handlers use.
type OTPAuthenticator interface {
	RequestOTP(ctx context.Context, localNumber string) (*auth.Challenge, error)
	VerifyOTP(ctx context.Context, challenge *auth.Challenge, code string) (string, error)
	SignOut(ctx context.Context, token string) error
}

// RecordAPI is the slice of the record backend client the handlers use.
type RecordAPI interface {
	AddRecord(ctx context.Context, token string, rec record.Record, progress record.ProgressFunc) error
	FetchRecord(ctx context.Context, token, id, year string) (*record.FetchedRecord, error)
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	templates *template.Template

	authClient   OTPAuthenticator
	recordClient RecordAPI
	cookie       *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	authClient OTPAuthenticator,
	recordClient RecordAPI,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger: logger,
		config: config,

		authClient:   authClient,
		recordClient: recordClient,
		cookie:       securecookie.New(hashKey, blockKey),

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

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/otp/request", s.handlePostOTPRequest, http.MethodPost)
	r.HandleFunc("/otp/verify", s.handlePostOTPVerify, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/add", s.handleGetAdd, http.MethodGet)
		r.HandleFunc("/add", s.handlePostAdd, http.MethodPost)
		r.HandleFunc("/view", s.handleGetView, http.MethodGet)
		r.HandleFunc("/view", s.handlePostView, http.MethodPost)
		r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)
	})

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func required(v string) bool {
	return strings.TrimSpace(v) != ""
}

func loadTemplates() (*template.Template, error) {
	t := template.New("")
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
