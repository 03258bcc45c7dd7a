package handler

import (
	"net/http"

	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewAuthHandler(svc *service.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		writeError(c, h.logger, "Register", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, "Login", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Profile GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	u, err := h.svc.Profile(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.logger, "Profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
