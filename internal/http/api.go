package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-service/internal/domain"
	"user-service/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tokens service.TokenService
	logger logrus.FieldLogger
}

func NewHandler(users service.UserService, tokens service.TokenService, logger logrus.FieldLogger) *Handler {
	return &Handler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/auth/login", h.login)

		authed := api.Group("", h.authenticate())
		authed.GET("/me", h.requireAction(service.ActionViewOwnData), h.me)
		authed.GET("/users/:id", h.getUser)
		authed.POST("/users/:id/change-password", h.changePassword)

		admin := authed.Group("", h.requireAction(service.ActionManageUsers))
		admin.POST("/users", h.createUser)
		admin.GET("/users", h.listUsers)
		admin.PUT("/users/:id", h.updateUser)
		admin.DELETE("/users/:id", h.deleteUser)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      UserResponse `json:"user"`
}

type createUserRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastFirstName  string `json:"last_first_name" binding:"required"`
	LastSecondName string `json:"last_second_name"`
	Mail           string `json:"mail" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	CI             string `json:"ci" binding:"required"`
	Role           string `json:"role" binding:"required"`
}

type updateUserRequest struct {
	FirstName      *string `json:"first_name"`
	LastFirstName  *string `json:"last_first_name"`
	LastSecondName *string `json:"last_second_name"`
	Mail           *string `json:"mail"`
	Phone          *string `json:"phone"`
	CI             *string `json:"ci"`
	Role           *string `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		User:      userToResponse(*user),
	})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, userToResponse(*currentUser(c)))
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		FirstName:      req.FirstName,
		LastFirstName:  req.LastFirstName,
		LastSecondName: req.LastSecondName,
		Mail:           req.Mail,
		Phone:          req.Phone,
		CI:             req.CI,
		Role:           req.Role,
	}, currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Location", "/api/users/"+strconv.FormatInt(user.ID, 10))
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	caller := currentUser(c)
	self := caller.ID == id && h.users.CanPerformAction(caller, service.ActionViewOwnData)
	if !self && !h.users.CanPerformAction(caller, service.ActionManageUsers) {
		h.writeError(c, domain.ErrForbidden)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, service.UpdateInput{
		FirstName:      req.FirstName,
		LastFirstName:  req.LastFirstName,
		LastSecondName: req.LastSecondName,
		Mail:           req.Mail,
		Phone:          req.Phone,
		CI:             req.CI,
		Role:           req.Role,
	}, currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.users.SoftDelete(c.Request.Context(), id, currentUser(c).ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) changePassword(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if currentUser(c).ID != id {
		h.writeError(c, domain.ErrForbidden)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

type UserResponse struct {
	ID                    int64   `json:"id"`
	Username              string  `json:"username"`
	FirstName             string  `json:"first_name"`
	LastFirstName         string  `json:"last_first_name"`
	LastSecondName        *string `json:"last_second_name,omitempty"`
	Mail                  string  `json:"mail"`
	Phone                 string  `json:"phone"`
	CI                    string  `json:"ci"`
	Role                  string  `json:"role"`
	HasChangedPassword    bool    `json:"has_changed_password"`
	PasswordVersion       int     `json:"password_version"`
	LastPasswordChangedAt *string `json:"last_password_changed_at,omitempty"`
	IsDeleted             bool    `json:"is_deleted"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

func userToResponse(u domain.User) UserResponse {
	resp := UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastFirstName:      u.LastFirstName,
		LastSecondName:     u.LastSecondName,
		Mail:               u.Mail,
		Phone:              u.Phone,
		CI:                 u.CI,
		Role:               string(u.Role),
		HasChangedPassword: u.HasChangedPassword,
		PasswordVersion:    u.PasswordVersion,
		IsDeleted:          u.IsDeleted,
		CreatedAt:          u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          u.UpdatedAt.Format(time.RFC3339),
	}
	if u.LastPasswordChangedAt != nil {
		v := u.LastPasswordChangedAt.Format(time.RFC3339)
		resp.LastPasswordChangedAt = &v
	}
	return resp
}
