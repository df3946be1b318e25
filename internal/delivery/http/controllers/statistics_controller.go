package controllers

import (
	"log/slog"
	"net/http"

	"meetingscheduler/internal/delivery/http/helpers"
	"meetingscheduler/internal/domain"
)

// StatisticsSuccessResponse is the success response envelope for GET /statistics (200).
type StatisticsSuccessResponse struct {
	Data  *domain.Statistics `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type StatisticsController struct {
	Logger  *slog.Logger
	Service domain.StatisticsService
}

func NewStatisticsController(logger *slog.Logger, svc domain.StatisticsService) *StatisticsController {
	return &StatisticsController{
		Logger:  logger,
		Service: svc,
	}
}

// GetStatistics godoc
// @Summary Activity statistics
// @Description Number of events created and votes cast inside the rolling window ending now.
// @Tags statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.StatisticsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /statistics [get]
func (c *StatisticsController) GetStatistics(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	stats, err := c.Service.GetStatistics(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
