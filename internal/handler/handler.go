package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/cache"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/checklist"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/config"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/notify"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/repository"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	mail       *notify.Publisher
	cache      *cache.Store
	session    *checklist.Session
	gate       *checklist.Gate
	logger     *slog.Logger

	Mux *chi.Mux
}

type Deps struct {
	Repository *repository.Repository
	Mail       *notify.Publisher
	Cache      *cache.Store
	Session    *checklist.Session
	Gate       *checklist.Gate
	Logger     *slog.Logger
}

func NewHandler(cfg *config.Config, deps Deps) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: deps.Repository,
		translator: trans,
		mail:       deps.Mail,
		cache:      deps.Cache,
		session:    deps.Session,
		gate:       deps.Gate,
		logger:     logger,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	h.Mux.Use(h.requestID)
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
				r.Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", h.GetAllVehicles)
			r.With(adminOnly).Post("/", h.CreateVehicle)
			r.Route("/{vehicleID}", func(r chi.Router) {
				r.Use(h.vehicle)
				r.Get("/", h.GetVehicle)
				r.With(adminOnly).Patch("/", h.UpdateVehicle)
				r.With(adminOnly).Delete("/", h.DeleteVehicle)

				r.Route("/questions", func(r chi.Router) {
					r.Get("/", h.GetQuestions)
					r.With(adminOnly).Post("/", h.CreateQuestion)
					r.With(adminOnly).Put("/", h.ReplaceQuestions)
					r.With(adminOnly).Delete("/{questionID}", h.DeleteQuestion)
				})

				r.Route("/rotation-rules", func(r chi.Router) {
					r.Get("/", h.GetRotationRules)
					r.With(adminOnly).Put("/", h.SaveRotationRules)
					r.With(adminOnly).Delete("/", h.DeleteRotationRules)
				})

				r.Route("/checks", func(r chi.Router) {
					r.Get("/", h.GetVehicleChecks)
					r.With(h.preventInactiveUser, h.preventInactiveVehicle).Post("/", h.StartOrResumeCheck)
				})

				r.Get("/session", h.GetActiveSession)
			})
		})

		r.Route("/checks/{checkID}", func(r chi.Router) {
			r.Use(h.check)
			r.Get("/", h.GetCheck)
			r.Get("/validation", h.GetCheckValidation)
			r.Group(func(r chi.Router) {
				r.Use(h.preventForeignCheck)
				r.Route("/items/{itemID}", func(r chi.Router) {
					r.Put("/", h.RecordAnswer)
					r.Delete("/", h.ClearAnswer)
				})
				r.Post("/submit", h.SubmitCheck)
				r.Post("/session", h.RetrySessionStart)
			})
		})

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(h.operatingSession)
			r.Post("/end", h.EndSession)
		})
	})
}
