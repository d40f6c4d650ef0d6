package router

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Answer-Evaluation-Backend/internal/api"
	"Answer-Evaluation-Backend/internal/metrics"
	"Answer-Evaluation-Backend/internal/model"
	"Answer-Evaluation-Backend/internal/ocr"
	"Answer-Evaluation-Backend/internal/repository"
	"Answer-Evaluation-Backend/internal/scoring"
	"Answer-Evaluation-Backend/internal/service"
)

func newTestRouter(t *testing.T, origins []string, maxUpload int64) (*gin.Engine, *metrics.Collector) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	uploads, err := repository.NewUploadRepository(afero.NewMemMapFs(), "uploads", true, logger)
	require.NoError(t, err)
	collector := metrics.NewCollector("router_test")
	modelScorer := scoring.NewModelScorer(nil, nil)
	svc := service.NewEvaluationService(uploads, ocr.NewExtractor(nil, logger),
		scoring.NewDefaultChain(logger, collector, modelScorer), modelScorer, collector, logger)

	return SetupRouter(api.NewEvaluateHandler(svc, maxUpload, logger), collector, logger, origins, maxUpload), collector
}

func TestIndexPage(t *testing.T) {
	r, _ := newTestRouter(t, nil, 1<<20)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `name="student_answer"`)
}

func TestHealthRoute(t *testing.T) {
	r, _ := newTestRouter(t, nil, 1<<20)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","model_available":false,"ocr_available":false}`, w.Body.String())
}

func TestUploadLimit(t *testing.T) {
	r, _ := newTestRouter(t, nil, 512)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, field := range []string{model.RoleQuestion, model.RoleStudentAnswer, model.RoleReferenceAnswer} {
		part, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("x"), 1024))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/evaluate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"File too large. Maximum upload size is 512 bytes"}`, w.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	r, _ := newTestRouter(t, nil, 1<<20)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `router_test_http_requests_total{method="GET",path="/health",status="200"} 1`),
		"request counter missing from:\n%s", w.Body.String())
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		r, _ := newTestRouter(t, []string{"*"}, 1<<20)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://client.test")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow list", func(t *testing.T) {
		r, _ := newTestRouter(t, []string{"http://allowed.example"}, 1<<20)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://allowed.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "http://allowed.example", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://other.example")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
