package handlers

import (
	"publication-system/helper"
	"publication-system/models"
	"publication-system/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the system admin console. Routes are mounted behind
// the system admin role check.
type AdminHandler struct {
	adminService services.AdminService
	Helper       *helper.HTTPHelper
}

func NewAdminHandler(adminService services.AdminService, h *helper.HTTPHelper) *AdminHandler {
	return &AdminHandler{adminService: adminService, Helper: h}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", users)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "User updated", user)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), id); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "User deleted", h.Helper.EmptyJsonMap())
}

func (h *AdminHandler) Statistics(c *gin.Context) {
	stats, err := h.adminService.Statistics(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", stats)
}

func (h *AdminHandler) ListUploads(c *gin.Context) {
	files, err := h.adminService.ListUploads(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", files)
}

func (h *AdminHandler) DeleteUpload(c *gin.Context) {
	if err := h.adminService.DeleteUpload(c.Request.Context(), c.Param("name")); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "File deleted", h.Helper.EmptyJsonMap())
}

func (h *AdminHandler) ResetDatabase(c *gin.Context) {
	var req models.ResetDatabaseRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	if err := h.adminService.ResetDatabase(c.Request.Context(), req.Confirm); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "All data has been reset", h.Helper.EmptyJsonMap())
}
