package submission

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/claims"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/claims/:id/submit", h.Submit)
	g.POST("/claims/:id/scrub", h.Scrub)
	g.GET("/claims/:id/timely-filing", h.TimelyFiling)
}

type submitResponse struct {
	Success    bool          `json:"success"`
	Claim      *claims.Claim `json:"claim,omitempty"`
	Validation any           `json:"validation,omitempty"`
	Filing     any           `json:"timely_filing,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func (h *Handler) Submit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())

	result, err := h.svc.Submit(c.Request().Context(), id, userID)
	if err != nil {
		var blocked *BlockedError
		if errors.As(err, &blocked) {
			return c.JSON(http.StatusUnprocessableEntity, submitResponse{
				Success:    false,
				Validation: blocked.Validation,
				Error:      blocked.Error(),
			})
		}
		if errors.Is(err, claims.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "claim not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, submitResponse{
		Success:    true,
		Claim:      result.Claim,
		Validation: result.Validation,
		Filing:     result.Filing,
	})
}

func (h *Handler) Scrub(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.Scrub(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, claims.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "claim not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) TimelyFiling(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	filing, err := h.svc.TimelyFiling(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, claims.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "claim not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, filing)
}
