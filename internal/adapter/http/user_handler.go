package http

import (
	"net/http"
	"time"

	"github.com/campusmarket/marketplace-service/internal/adapter/http/middleware"
	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Course    string    `json:"course,omitempty"`
	Contact   string    `json:"contact,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Course:    user.Course,
		Contact:   user.Contact,
		Role:      string(user.Role),
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
	}
}

type updateUserRequest struct {
	Name   *string `json:"name"`
	Course *string `json:"course"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (h *Handler) getProfile(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	user, err := h.users.GetProfile(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) listUsers(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	users, err := h.users.ListUsers(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]userResponse, len(users))
	for i, user := range users {
		out[i] = toUserResponse(user)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) updateUser(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	in := usecase.UserUpdateInput{
		Name:   req.Name,
		Course: req.Course,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}
	if req.Status != nil {
		status := domain.UserStatus(*req.Status)
		in.Status = &status
	}

	user, err := h.users.UpdateUser(c.Request.Context(), p, c.Param("userId"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	if err := h.users.DeleteUser(c.Request.Context(), p, c.Param("userId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
