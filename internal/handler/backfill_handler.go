package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-service/internal/model"
	"school-service/pkg/database"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// RunBackfill repairs missing school ids across all tables. Safe to run
// repeatedly; rows that already carry a school id are left alone.
func RunBackfill(c echo.Context) error {
	log := logger.FromEcho(c)
	p := principal(c)

	defer prometheus.TrackDBOperation("transaction")(time.Now())
	run, err := backfillRunner.Run(p.UserID)
	if err != nil {
		log.Error("Backfill run failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "backfill failed"})
	}

	log.Info("Backfill completed",
		zap.Uint("run_id", run.ID),
		zap.Int64("scanned", run.Scanned),
		zap.Int64("repaired", run.Repaired))
	return c.JSON(http.StatusOK, run)
}

// ListBackfillRuns returns past backfill executions, newest first
func ListBackfillRuns(c echo.Context) error {
	page, limit, offset := pagination(c)

	var total int64
	database.GetDB().Model(&model.BackfillRun{}).Count(&total)

	var runs []model.BackfillRun
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := database.GetDB().Model(&model.BackfillRun{}).
		Order("id desc").Offset(offset).Limit(limit).Find(&runs); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list runs"})
	}
	return paginated(c, "runs", runs, page, limit, total)
}
