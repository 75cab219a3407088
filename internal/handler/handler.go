package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rsud-anugerah/shift-swap/backend/internal/config"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	users      UserStore
	shifts     ShiftStore
	swaps      SwapService
	notifier   Deliverer

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, users UserStore, shifts ShiftStore, swaps SwapService, notifier Deliverer) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		users:      users,
		shifts:     shifts,
		swaps:      swaps,
		notifier:   notifier,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// everything below requires a logged-in user
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Put("/telegram-chat-id", h.UpdateTelegramChatID)
			r.Post("/test-notification", h.TestNotification)
		})

		r.Get("/users", h.GetAllUsers) // partner selection needs the staff directory
		r.With(h.myInfo).Get("/shifts", h.GetMyUpcomingShifts)

		r.Route("/swap-requests", func(r chi.Router) {
			r.Use(h.myInfo)
			r.With(h.requireActive).Post("/", h.CreateSwapRequest)
			r.Get("/", h.ListSwapRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSwapRequest)
				r.With(h.requireActive).Post("/decision", h.DecideSwapRequest)
				r.With(h.requireActive).Post("/cancel", h.CancelSwapRequest)
			})
		})
	})
}
