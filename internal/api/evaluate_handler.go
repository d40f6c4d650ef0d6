package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Answer-Evaluation-Backend/internal/model"
	"Answer-Evaluation-Backend/internal/service"
)

const (
	msgMissingImages = "All three images are required"
	msgFileNotChosen = "One or more files not selected"
	msgInvalidType   = "Invalid file type. Only PNG, JPG, JPEG allowed"
)

type EvaluateHandler struct {
	evaluationService *service.EvaluationService
	msgTooLarge       string
	logger            *zap.Logger
}

// NewEvaluateHandler takes the request body limit only to report it; the
// limit itself is enforced by the router.
func NewEvaluateHandler(evaluationService *service.EvaluationService, maxUploadBytes int64, logger *zap.Logger) *EvaluateHandler {
	return &EvaluateHandler{
		evaluationService: evaluationService,
		msgTooLarge:       tooLargeMessage(maxUploadBytes),
		logger:            logger.With(zap.String("component", "api")),
	}
}

func tooLargeMessage(maxUploadBytes int64) string {
	switch {
	case maxUploadBytes <= 0:
		return "File too large"
	case maxUploadBytes%(1<<20) == 0:
		return fmt.Sprintf("File too large. Maximum upload size is %dMB", maxUploadBytes>>20)
	default:
		return fmt.Sprintf("File too large. Maximum upload size is %d bytes", maxUploadBytes)
	}
}

func (h *EvaluateHandler) handleEvaluateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingImage):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgMissingImages})
	case errors.Is(err, service.ErrEmptyFilename):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgFileNotChosen})
	case errors.Is(err, service.ErrInvalidFileType):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgInvalidType})
	default:
		h.logger.Error("[Evaluate] error in text extraction or scoring", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
	}
}

func (h *EvaluateHandler) EvaluateHandler(c *gin.Context) {
	h.logger.Info("[Evaluate] request received", zap.String("remote", c.ClientIP()))

	var uploads model.EvaluationUploads
	if err := c.ShouldBind(&uploads); err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: h.msgTooLarge})
			return
		}
		// Whatever could be bound is still validated below, which reports
		// the missing images.
		h.logger.Warn("[Evaluate] could not parse upload form", zap.Error(err))
	}
	fillFileFields(c.Request, &uploads)

	if c.Request.MultipartForm != nil {
		h.logger.Debug("[Evaluate] files in request", zap.Strings("fields", formFileFields(c.Request.MultipartForm)))
	}

	result, err := h.evaluationService.Evaluate(c.Request.Context(), &uploads)
	if err != nil {
		h.handleEvaluateError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *EvaluateHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{
		Status:         "UP",
		ModelAvailable: h.evaluationService.ModelAvailable(),
		OCRAvailable:   h.evaluationService.OCRAvailable(),
	})
}

// fillFileFields fills uploads the binder left unset from the parsed form. A
// file field sent without a filename, which the multipart parser files under
// plain values, becomes an upload with an empty name so validation reports it
// as "not selected" rather than missing.
func fillFileFields(req *http.Request, u *model.EvaluationUploads) {
	if req.MultipartForm == nil {
		return
	}
	slots := map[string]**multipart.FileHeader{
		model.RoleQuestion:        &u.Question,
		model.RoleStudentAnswer:   &u.StudentAnswer,
		model.RoleReferenceAnswer: &u.ReferenceAnswer,
	}
	for role, slot := range slots {
		if *slot != nil {
			continue
		}
		if files := req.MultipartForm.File[role]; len(files) > 0 {
			*slot = files[0]
		} else if _, sent := req.MultipartForm.Value[role]; sent {
			*slot = &multipart.FileHeader{}
		}
	}
}

func formFileFields(form *multipart.Form) []string {
	fields := make([]string, 0, len(form.File))
	for name := range form.File {
		fields = append(fields, name)
	}
	return fields
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
