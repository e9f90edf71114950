package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/aggregator"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// VitalsService 生命体征服务接口（service.VitalsService 实现）
type VitalsService interface {
	// Window 计算窗口视图（含分级与升级处理）
	Window(ctx context.Context, patientID string, duration time.Duration) (*aggregator.WindowResult, error)
	// IngestReading 校验并持久化一条读数
	IngestReading(ctx context.Context, reading *models.Reading) error
}

// VitalsHandler 生命体征 HTTP 处理器
type VitalsHandler struct {
	service       VitalsService
	defaultWindow time.Duration
	logger        *zap.Logger
}

func NewVitalsHandler(service VitalsService, defaultWindow time.Duration, logger *zap.Logger) *VitalsHandler {
	return &VitalsHandler{
		service:       service,
		defaultWindow: defaultWindow,
		logger:        logger,
	}
}

// GET /vitals/api/v1/vitals/{patientId}/window?duration=24h
func (h *VitalsHandler) GetWindow(w http.ResponseWriter, r *http.Request, patientID string) {
	duration := parseDuration(r.URL.Query().Get("duration"), h.defaultWindow)

	result, err := h.service.Window(r.Context(), patientID, duration)
	if err != nil {
		h.writeError(w, patientID, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(result))
}

// POST /vitals/api/v1/vitals/{patientId}/readings
// 设备/人工直推一条读数，patientId 以路径为准
func (h *VitalsHandler) PostReading(w http.ResponseWriter, r *http.Request, patientID string) {
	var reading models.Reading
	if err := readBodyJSON(r, 1<<20, &reading); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	reading.PatientID = patientID
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}

	if err := h.service.IngestReading(r.Context(), &reading); err != nil {
		h.writeError(w, patientID, err)
		return
	}

	writeJSON(w, http.StatusCreated, Ok(map[string]any{
		"patientId": patientID,
		"timestamp": reading.Timestamp,
	}))
}

// GET /vitals/api/v1/vitals/{patientId}/export?duration=24h
// 导出窗口内历史为 xlsx
func (h *VitalsHandler) Export(w http.ResponseWriter, r *http.Request, patientID string) {
	duration := parseDuration(r.URL.Query().Get("duration"), h.defaultWindow)

	result, err := h.service.Window(r.Context(), patientID, duration)
	if err != nil {
		h.writeError(w, patientID, err)
		return
	}

	data, err := GenerateVitalsExport(patientID, result.Readings)
	if err != nil {
		h.logger.Error("Failed to generate vitals export",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("vitals_%s_%s.xlsx", patientID, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /healthz
func (h *VitalsHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
}

// writeError 错误分类映射：校验 -> 400，存储超时 -> 504，存储 -> 500
func (h *VitalsHandler) writeError(w http.ResponseWriter, patientID string, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.Is(err, models.ErrStoreTimeout):
		h.logger.Error("Window query timed out",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusGatewayTimeout, Fail("query timed out"))
	case errors.Is(err, models.ErrStore):
		h.logger.Error("Store operation failed",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("storage error"))
	default:
		h.logger.Error("Unexpected error",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}
