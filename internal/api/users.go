package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// userUpdate is the body of PUT /users/:id. Nil fields are left untouched.
type userUpdate struct {
	Firstname *string      `json:"firstname"`
	Lastname  *string      `json:"lastname"`
	Role      *models.Role `json:"role"`
	Company   *string      `json:"company"`
	Active    *bool        `json:"active"`
}

// GetUsers handles GET /users?company=
func (h *Handler) GetUsers(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	users, err := h.db.GetUsers(ctx, c.Query("company"))
	if err != nil {
		respondError(c, err, "fetch users")
		return
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public(""))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// GetUser handles GET /users/:id
func (h *Handler) GetUser(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.db.GetUser(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch user")
		return
	}
	c.JSON(http.StatusOK, u.Public(""))
}

// UpdateUser handles PUT /users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req userUpdate
	if !bindJSON(c, &req) {
		return
	}
	fields := map[string]any{}
	if req.Firstname != nil {
		fields["firstname"] = *req.Firstname
	}
	if req.Lastname != nil {
		fields["lastname"] = *req.Lastname
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			badRequest(c, "invalid role")
			return
		}
		fields["role"] = string(*req.Role)
	}
	if req.Company != nil {
		fields["company"] = *req.Company
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}
	id := c.Param("id")
	if len(fields) > 0 {
		if err := h.db.UpdateUserFields(ctx, id, fields); err != nil {
			respondError(c, err, "update user")
			return
		}
	}
	u, err := h.db.GetUser(ctx, id)
	if err != nil {
		respondError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, u.Public(""))
}

// DeleteUser handles DELETE /users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteUser(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
