package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sayrikey1/Event-Booking-App/internal/middleware"
	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/service"
)

// Users is the surface of service.UserService.
type Users interface {
	CreateUser(ctx context.Context, in service.CreateUserInput) (*model.User, error)
	VerifyOtp(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Refresh(ctx context.Context, raw string) (*service.Session, error)
	Logout(ctx context.Context, userID uint64, raw string) error
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, callerID, targetID uint64, p model.UserPatch) (*model.User, error)
	DeleteUser(ctx context.Context, callerID uint64, callerRole string, targetID uint64) error
	SendPasswordResetMail(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// AuthHandler serves registration, login and account endpoints.
type AuthHandler struct {
	Users Users
	Log   logrus.FieldLogger
}

func NewAuthHandler(u Users, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Users: u, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Address   string `json:"address"`
	UserType  string `json:"user_type"`
}

type verifyReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type emailReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type updateUserReq struct {
	ID uint64 `json:"id"`
	model.UserPatch
}

type sessionResp struct {
	Message        string    `json:"message"`
	ID             uint64    `json:"id"`
	Token          string    `json:"token"`
	Expires        time.Time `json:"expires"`
	RefreshToken   string    `json:"refresh_token"`
	RefreshExpires time.Time `json:"refresh_expires"`
}

func newSessionResp(msg string, s *service.Session) sessionResp {
	return sessionResp{
		Message:        msg,
		ID:             s.User.ID,
		Token:          s.Access.Token,
		Expires:        s.Access.Exp,
		RefreshToken:   s.Refresh.Raw,
		RefreshExpires: s.Refresh.Exp,
	}
}

// Register handles POST /api/create.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	u, err := h.Users.CreateUser(c.Request().Context(), service.CreateUserInput(req))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User created successfully. Check your email for the verification code",
		"id":      u.ID,
	})
}

// VerifyOtp handles POST /api/verify-otp.
func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	if err := h.Users.VerifyOtp(c.Request().Context(), req.Email, req.OTP); err != nil {
		return writeError(c, h.Log, err)
	}
	return message(c, http.StatusOK, "Account verified successfully")
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return message(c, http.StatusBadRequest, "email and password are required")
	}
	s, err := h.Users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newSessionResp("Login successful", s))
}

// Refresh handles POST /api/refresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return message(c, http.StatusBadRequest, "refresh_token is required")
	}
	s, err := h.Users.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newSessionResp("Token refreshed", s))
}

// Logout handles POST /api/logout. Without a refresh_token every session of
// the caller is revoked.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	var req refreshReq
	_ = c.Bind(&req)
	if err := h.Users.Logout(c.Request().Context(), uid, req.RefreshToken); err != nil {
		return writeError(c, h.Log, err)
	}
	return message(c, http.StatusOK, "Logged out")
}

// Me handles GET /api/user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	u, err := h.Users.GetUser(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User retrieved successfully", "user": u})
}

// List handles GET /api/users.
func (h *AuthHandler) List(c echo.Context) error {
	users, err := h.Users.GetAllUsers(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Users retrieved successfully", "users": users})
}

// Update handles PATCH /api/update.
func (h *AuthHandler) Update(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	u, err := h.Users.UpdateUser(c.Request().Context(), uid, req.ID, req.UserPatch)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully", "user": u})
}

// Delete handles DELETE /api/delete/:id.
func (h *AuthHandler) Delete(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}
	target, ok := pathID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "invalid user id")
	}
	if err := h.Users.DeleteUser(c.Request().Context(), uid, middleware.Role(c), target); err != nil {
		return writeError(c, h.Log, err)
	}
	return message(c, http.StatusOK, "User deleted successfully")
}

// ForgetPassword handles POST /api/forget-password.
func (h *AuthHandler) ForgetPassword(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return message(c, http.StatusBadRequest, "email is required")
	}
	if err := h.Users.SendPasswordResetMail(c.Request().Context(), req.Email); err != nil {
		return writeError(c, h.Log, err)
	}
	return message(c, http.StatusOK, "Password reset link sent to your email")
}

// ResetPassword handles POST /api/reset-password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	if err := h.Users.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return writeError(c, h.Log, err)
	}
	return message(c, http.StatusOK, "Password reset successfully")
}
