package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/model"
)

type markRequest struct {
	Date string          `json:"date"`
	Time string          `json:"time"`
	User *model.Snapshot `json:"user"`
}

type updateAttendanceRequest struct {
	Date string         `json:"date"`
	Time string         `json:"time"`
	User model.Snapshot `json:"user"`
}

// MarkAttendance records the caller's attendance for a day.
func (h *Handler) MarkAttendance(c *gin.Context) {
	const op = "handler.MarkAttendance"
	log := h.log.With(slog.String("op", op))

	_, user, err := h.caller(c)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, log, badBody(err))
		return
	}
	snap, err := ownSnapshot(user, req.User)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	rec, err := h.ledger.Mark(c.Request.Context(), snap, req.Date, req.Time)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AttendanceStatus tells the caller whether they already marked the given date.
func (h *Handler) AttendanceStatus(c *gin.Context) {
	log := h.log.With(slog.String("op", "handler.AttendanceStatus"))

	_, user, err := h.caller(c)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	date := c.Query("date")
	marked, err := h.ledger.MarkedOn(c.Request.Context(), user.Email, date)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "marked": marked})
}

// UserAttendance lists records for one email, scoped to the caller unless admin.
func (h *Handler) UserAttendance(c *gin.Context) {
	log := h.log.With(slog.String("op", "handler.UserAttendance"))

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

	records, err := h.ledger.ListForUser(c.Request.Context(), email)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// AllAttendance lists every record.
func (h *Handler) AllAttendance(c *gin.Context) {
	log := h.log.With(slog.String("op", "handler.AllAttendance"))

	records, err := h.ledger.ListAll(c.Request.Context())
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// UpdateAttendance overwrites a record.
func (h *Handler) UpdateAttendance(c *gin.Context) {
	const op = "handler.UpdateAttendance"
	log := h.log.With(slog.String("op", op), slog.String("id", c.Param("id")))

	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, log, badBody(err))
		return
	}

	rec, err := h.ledger.Update(c.Request.Context(), c.Param("id"), req.User, req.Date, req.Time)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	log.Info("attendance updated")
	c.JSON(http.StatusOK, rec)
}

// DeleteAttendance removes a record.
func (h *Handler) DeleteAttendance(c *gin.Context) {
	const op = "handler.DeleteAttendance"
	log := h.log.With(slog.String("op", op), slog.String("id", c.Param("id")))

	if err := h.ledger.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, log, err)
		return
	}
	log.Info("attendance deleted")
	c.JSON(http.StatusOK, gin.H{"message": "attendance record removed"})
}
