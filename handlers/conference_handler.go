package handlers

import (
	"publication-system/helper"
	"publication-system/models"
	"publication-system/services"

	"github.com/gin-gonic/gin"
)

type ConferenceHandler struct {
	conferenceService services.ConferenceService
	Helper            *helper.HTTPHelper
}

func NewConferenceHandler(conferenceService services.ConferenceService, h *helper.HTTPHelper) *ConferenceHandler {
	return &ConferenceHandler{conferenceService: conferenceService, Helper: h}
}

func (h *ConferenceHandler) Create(c *gin.Context) {
	var req models.ConferenceRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	conference, err := h.conferenceService.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Conference created", conference)
}

func (h *ConferenceHandler) List(c *gin.Context) {
	conferences, err := h.conferenceService.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", conferences)
}

func (h *ConferenceHandler) Get(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	conference, err := h.conferenceService.Get(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", conference)
}

func (h *ConferenceHandler) Update(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}
	var req models.ConferenceRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	conference, err := h.conferenceService.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Conference updated", conference)
}

func (h *ConferenceHandler) Delete(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.conferenceService.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Conference deleted", h.Helper.EmptyJsonMap())
}

func (h *ConferenceHandler) Submit(c *gin.Context) {
	var req models.ConferenceSubmitRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	submission, err := h.conferenceService.Submit(c.Request.Context(), actor(c), req.PaperID, req.ConferenceID)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Paper submitted to conference", submission)
}

func (h *ConferenceHandler) ListMySubmissions(c *gin.Context) {
	submissions, err := h.conferenceService.ListMySubmissions(c.Request.Context(), actor(c))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", submissions)
}

func (h *ConferenceHandler) ListSubmissions(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	submissions, err := h.conferenceService.ListSubmissions(c.Request.Context(), actor(c), id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", submissions)
}

func (h *ConferenceHandler) DecideSubmission(c *gin.Context) {
	conferenceID, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}
	submissionID, ok := h.Helper.ParseID(c, "submission_id")
	if !ok {
		return
	}
	var req models.DecisionRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	submission, err := h.conferenceService.Decide(c.Request.Context(), actor(c), conferenceID, submissionID, req.Status)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Submission "+string(req.Status), submission)
}

// AssignSelf seats the calling admin as chair.
func (h *ConferenceHandler) AssignSelf(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}
	caller := actor(c)

	if err := h.conferenceService.AssignChair(c.Request.Context(), caller, id, caller.UserID); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "You are now a chair of this conference", h.Helper.EmptyJsonMap())
}

func (h *ConferenceHandler) AssignChair(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}
	var req models.AssignChairRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	if err := h.conferenceService.AssignChair(c.Request.Context(), actor(c), id, req.UserID); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Chair assigned", h.Helper.EmptyJsonMap())
}

func (h *ConferenceHandler) ListChairs(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	chairs, err := h.conferenceService.ListChairs(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", chairs)
}
