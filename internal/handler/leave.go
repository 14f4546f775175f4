package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/model"
)

type leaveRequest struct {
	FromDate string          `json:"fromDate"`
	ToDate   string          `json:"toDate"`
	Reason   string          `json:"reason"`
	User     *model.Snapshot `json:"user"`
}

type decisionRequest struct {
	Status model.LeaveStatus `json:"status"`
}

// SubmitLeave files a pending leave request for the caller.
func (h *Handler) SubmitLeave(c *gin.Context) {
	const op = "handler.SubmitLeave"
	log := h.log.With(slog.String("op", op))

	_, user, err := h.caller(c)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, log, badBody(err))
		return
	}
	snap, err := ownSnapshot(user, req.User)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	saved, err := h.leave.Submit(c.Request.Context(), snap, req.FromDate, req.ToDate, req.Reason)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// UserLeave lists leave requests for one email, scoped like UserAttendance.
func (h *Handler) UserLeave(c *gin.Context) {
	log := h.log.With(slog.String("op", "handler.UserLeave"))

	p, user, err := h.caller(c)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	email, err := scopedEmail(p, user, c.Query("email"))
	if err != nil {
		h.fail(c, log, err)
		return
	}

	reqs, err := h.leave.ListForUser(c.Request.Context(), email)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// AllLeave lists every leave request.
func (h *Handler) AllLeave(c *gin.Context) {
	log := h.log.With(slog.String("op", "handler.AllLeave"))

	reqs, err := h.leave.ListAll(c.Request.Context())
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// DecideLeave accepts or rejects a request.
func (h *Handler) DecideLeave(c *gin.Context) {
	const op = "handler.DecideLeave"
	log := h.log.With(slog.String("op", op), slog.String("id", c.Param("id")))

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, log, badBody(err))
		return
	}

	decided, err := h.leave.Decide(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	log.Info("leave decided", slog.String("status", string(decided.Status)))
	c.JSON(http.StatusOK, decided)
}
