package handlers

import (
	"errors"
	"net/http"
	"strings"

	"polly-backend/service"

	"github.com/gin-gonic/gin"
)

// newOptionPrefix marks client-side placeholder ids of options that are not stored yet
const newOptionPrefix = "_new_"

// CreatePollInput is the body of POST /polls
type CreatePollInput struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options"`
}

// OptionPayload is one submitted option of an update. An empty id or a
// placeholder id means the option is new.
type OptionPayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// UpdatePollInput is the body of PUT /polls/:id
type UpdatePollInput struct {
	Question string          `json:"question" binding:"required"`
	Options  []OptionPayload `json:"options"`
}

// PollHandler exposes the poll service over HTTP
type PollHandler struct {
	polls     service.PollService
	loginPath string
}

// NewPollHandler creates a poll handler. Anonymous create requests are
// redirected to loginPath.
func NewPollHandler(polls service.PollService, loginPath string) *PollHandler {
	return &PollHandler{polls: polls, loginPath: loginPath}
}

// RegisterRoutes adds the poll routes to group. Mutations go through limit.
func (h *PollHandler) RegisterRoutes(group *gin.RouterGroup, limit ...gin.HandlerFunc) {
	polls := group.Group("/polls")
	{
		polls.GET("", h.GetPolls)
		polls.GET("/:id", h.GetPoll)

		mutate := polls.Group("", limit...)
		mutate.POST("", h.CreatePoll)
		mutate.PUT("/:id", h.UpdatePoll)
		mutate.DELETE("/:id", h.DeletePoll)
	}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(c *gin.Context) {
	identity := CurrentIdentity(c)
	if identity == nil {
		h.redirectToLogin(c)
		return
	}

	var input CreatePollInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidBody(c, err)
		return
	}
	if strings.TrimSpace(input.Question) == "" {
		badRequest(c, "Question is required.")
		return
	}

	pollID, err := h.polls.CreatePoll(c.Request.Context(), identity, input.Question, input.Options)
	if errors.Is(err, service.ErrLoginRequired) {
		h.redirectToLogin(c)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Success: true, PollID: pollID})
}

// GetPolls handles GET /polls
func (h *PollHandler) GetPolls(c *gin.Context) {
	polls, err := h.polls.GetPolls(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

// GetPoll handles GET /polls/:id
func (h *PollHandler) GetPoll(c *gin.Context) {
	poll, err := h.polls.GetPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

// UpdatePoll handles PUT /polls/:id
func (h *PollHandler) UpdatePoll(c *gin.Context) {
	var input UpdatePollInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidBody(c, err)
		return
	}
	if strings.TrimSpace(input.Question) == "" {
		badRequest(c, "Question is required.")
		return
	}

	err := h.polls.UpdatePoll(c.Request.Context(), c.Param("id"), CurrentIdentity(c), input.Question, toOptionInputs(input.Options))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// DeletePoll handles DELETE /polls/:id
func (h *PollHandler) DeletePoll(c *gin.Context) {
	if err := h.polls.DeletePoll(c.Request.Context(), c.Param("id"), CurrentIdentity(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *PollHandler) redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, h.loginPath)
	c.Abort()
}

func toOptionInputs(payload []OptionPayload) []service.OptionInput {
	inputs := make([]service.OptionInput, 0, len(payload))
	for _, o := range payload {
		if o.ID == "" || strings.HasPrefix(o.ID, newOptionPrefix) {
			inputs = append(inputs, service.NewOption{Text: o.Text})
			continue
		}
		inputs = append(inputs, service.ExistingOption{ID: o.ID, Text: o.Text})
	}
	return inputs
}
