package handlers

import (
	"net/http"
	"time"

	"accident-dashboard-api/accidents"
	"accident-dashboard-api/middleware"
	"accident-dashboard-api/services"

	"github.com/gin-gonic/gin"
)

// SessionHandler keeps one filter selection per dashboard session, so
// concurrent viewers never see each other's filters.
type SessionHandler struct {
	auth      *services.AuthService
	sessions  *services.SessionStore
	accidents *AccidentsHandler
}

func NewSessionHandler(auth *services.AuthService, sessions *services.SessionStore, accidents *AccidentsHandler) *SessionHandler {
	return &SessionHandler{auth: auth, sessions: sessions, accidents: accidents}
}

type SessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	token, id, err := h.auth.NewSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{Token: token, SessionID: id})
}

func (h *SessionHandler) GetFilters(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	sel, err := h.sessions.Get(c.Request.Context(), claims.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
		return
	}
	c.JSON(http.StatusOK, sel)
}

// FiltersRequest is the body of PUT /session/filters. Dates use YYYY-MM-DD.
type FiltersRequest struct {
	Municipality string `json:"municipio"`
	Class        string `json:"clase"`
	Severity     string `json:"gravedad"`
	Weekday      string `json:"dia"`
	District     string `json:"comuna"`
	Text         string `json:"q"`
	From         string `json:"desde" binding:"omitempty,datetime=2006-01-02"`
	To           string `json:"hasta" binding:"omitempty,datetime=2006-01-02"`
}

func (r FiltersRequest) selection() (accidents.Selection, bool) {
	sel := accidents.Selection{
		Municipality: r.Municipality,
		Class:        r.Class,
		Severity:     r.Severity,
		Weekday:      r.Weekday,
		District:     r.District,
		Text:         r.Text,
	}
	if r.From == "" && r.To == "" {
		return sel, true
	}
	if r.From == "" || r.To == "" {
		return sel, false
	}
	from, _ := time.Parse(queryDateLayout, r.From)
	to, _ := time.Parse(queryDateLayout, r.To)
	sel.DateRange = &accidents.DateRange{From: from, To: to}
	return sel, true
}

func (h *SessionHandler) PutFilters(c *gin.Context) {
	var req FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sel, ok := req.selection()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": accidents.ErrIncompleteDateRange.Error()})
		return
	}

	claims := middleware.ClaimsFrom(c)
	if err := h.sessions.Save(c.Request.Context(), claims.SessionID, sel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
		return
	}
	c.JSON(http.StatusOK, sel)
}

// Summary runs the pipeline with the session's stored selection.
func (h *SessionHandler) Summary(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	sel, err := h.sessions.Get(c.Request.Context(), claims.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
		return
	}
	if s, ok := h.accidents.summary(c, sel); ok {
		c.JSON(http.StatusOK, gin.H{"filters": sel, "summary": s})
	}
}

// Chart renders one view for the session's stored selection.
func (h *SessionHandler) Chart(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	sel, err := h.sessions.Get(c.Request.Context(), claims.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
		return
	}
	if s, ok := h.accidents.summary(c, sel); ok {
		h.accidents.writeChart(c, c.Param("view"), s)
	}
}
