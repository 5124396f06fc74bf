package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"route-plan-service/internal/api/dto"
	"route-plan-service/internal/domain"
	"route-plan-service/internal/platform/metrics"
	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/services"
)

// Multipart parts above this size spill to temporary files.
const multipartMemory = 8 << 20

const (
	vehiclesPart = "vehicles"
	visitsPart   = "visits"
)

// PlanUploader builds a route plan from the raw upload.
type PlanUploader interface {
	Upload(ctx context.Context, in services.UploadInput) (*domain.RoutePlan, error)
}

type UploadHandler struct {
	Uploader PlanUploader
	MaxBytes int64
}

// Upload accepts a multipart form with "vehicles" and "visits" CSV parts and
// returns the assembled, unsolved plan.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.MaxBytes > 0 {
		if r.ContentLength > h.MaxBytes {
			metrics.PlanUploads.WithLabelValues("too_large").Inc()
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload too large",
				fmt.Sprintf("request body exceeds %d bytes", h.MaxBytes))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.PlanUploads.WithLabelValues("too_large").Inc()
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload too large", err.Error())
			return
		}
		h.invalidForm(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var in services.UploadInput

	vehicles, err := formFile(r, vehiclesPart)
	if err != nil {
		h.invalidForm(w, r, err)
		return
	}
	if vehicles != nil {
		defer vehicles.Close()
		in.Vehicles = vehicles
	}

	visits, err := formFile(r, visitsPart)
	if err != nil {
		h.invalidForm(w, r, err)
		return
	}
	if visits != nil {
		defer visits.Close()
		in.Visits = visits
	}

	plan, err := h.Uploader.Upload(r.Context(), in)
	if err != nil {
		status, msg, result := classifyUploadError(err)
		metrics.PlanUploads.WithLabelValues(result).Inc()
		log.Printf("req_id=%s upload failed: status=%d err=%v", obs.RequestID(r.Context()), status, err)
		writeError(w, r, status, msg, err.Error())
		return
	}

	metrics.PlanUploads.WithLabelValues("ok").Inc()
	writeJSON(w, r, http.StatusOK, dto.NewRoutePlanResponse(plan))
}

func (h *UploadHandler) invalidForm(w http.ResponseWriter, r *http.Request, err error) {
	metrics.PlanUploads.WithLabelValues("invalid_form").Inc()
	writeError(w, r, http.StatusBadRequest, "invalid multipart form", err.Error())
}

// formFile returns the named part, or nil when the form does not carry it.
func formFile(r *http.Request, name string) (multipart.File, error) {
	f, _, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func classifyUploadError(err error) (status int, msg, result string) {
	switch {
	case errors.Is(err, domain.ErrMissingInput):
		return http.StatusBadRequest, "missing input", "missing_input"
	case errors.Is(err, domain.ErrMalformedRecord):
		return http.StatusBadRequest, "malformed record", "malformed_record"
	case errors.Is(err, domain.ErrInitialization):
		return http.StatusInternalServerError, "driving time initialization failed", "init_failure"
	case errors.Is(err, context.Canceled), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "upload interrupted", "error"
	default:
		return http.StatusInternalServerError, "internal server error", "error"
	}
}
