package handlers

import (
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/middleware"
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/service"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_gate_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	registrationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_gate_registration_attempts_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status"},
	)

	loginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feature_gate_login_duration_seconds",
			Help:    "Time spent processing login requests",
			Buckets: prometheus.DefBuckets,
		},
	)
)

type AuthHandler struct {
	userService *service.UserService
	jwtService  *service.JWTService
}

func NewAuthHandler(userService *service.UserService, jwtService *service.JWTService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
	}
}

func (h *AuthHandler) RegisterRoutes(app *fiber.App, authenticate fiber.Handler) {
	authGroup := app.Group("/api/auth")

	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)
	authGroup.Get("/me", h.Me, authenticate)
	authGroup.Post("/forgot-password", h.ForgotPassword)
	authGroup.Put("/reset-password/:token", h.ResetPassword)
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		return Fail(c, err)
	}

	user, err := h.userService.Register(c.Context(), &req)
	if err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		return Fail(c, err)
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		return Fail(c, err)
	}

	registrationAttempts.WithLabelValues("success").Inc()
	return Success(c, fiber.StatusCreated, fiber.Map{
		"token": token,
		"user":  user,
	}, "User registered successfully")
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	start := time.Now()
	defer func() {
		loginDuration.Observe(time.Since(start).Seconds())
	}()

	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		return Fail(c, err)
	}

	user, err := h.userService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		return Fail(c, err)
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		return Fail(c, err)
	}

	loginAttempts.WithLabelValues("success").Inc()
	return Success(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  user,
	}, "Login successful")
}

func (h *AuthHandler) Me(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return Success(c, fiber.StatusOK, user, "Success")
}

func (h *AuthHandler) ForgotPassword(c fiber.Ctx) error {
	var req models.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return Fail(c, err)
	}

	if err := h.userService.ForgotPassword(c.Context(), req.Email); err != nil {
		return Fail(c, err)
	}

	return Success(c, fiber.StatusOK, nil, "Password reset mail sent")
}

func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	var req models.ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return Fail(c, err)
	}

	if err := h.userService.ResetPassword(c.Context(), c.Params("token"), req.Password); err != nil {
		return Fail(c, err)
	}

	return Success(c, fiber.StatusOK, nil, "Password has been reset")
}
