package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/analysis"
	"github.com/dyike/CortexReview/internal/desk"
	"github.com/dyike/CortexReview/internal/imageload"
	"github.com/dyike/CortexReview/internal/playbook"
	"github.com/dyike/CortexReview/models"
)

type fakeAnalyzer struct {
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, _ string) (*models.AnalysisResult, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalysisResult{
		IsSetupValid:    true,
		Verdict:         "EXECUTION APPROVED",
		SetupType:       "Trend Pullback",
		ConfluenceScore: 8,
		Feedback:        "Clean.",
		Pillars:         models.Pillars{Strategy: "s", Risk: "r", Psychology: "p"},
		Checklist:       []models.ChecklistItem{{Item: "Confirmation candle closed", Checked: true}},
	}, nil
}

type testDesk struct {
	handler http.Handler
	ctrl    *desk.Controller
}

func newTestDesk(t *testing.T, a desk.Analyzer) *testDesk {
	t.Helper()
	pb, err := playbook.Default()
	require.NoError(t, err)
	ctrl := desk.NewController(a)
	srv, err := NewHTTPServer("127.0.0.1:0", false, ctrl, imageload.NewLoader(1<<20), pb)
	require.NoError(t, err)
	return &testDesk{handler: srv.Handler(), ctrl: ctrl}
}

func (d *testDesk) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	d.handler.ServeHTTP(w, req)
	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	d := newTestDesk(t, &fakeAnalyzer{})
	w, body := d.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestIndexShowsPlaybook(t *testing.T) {
	d := newTestDesk(t, &fakeAnalyzer{})
	w, _ := d.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "RUN EVALUATION")
	assert.Contains(t, w.Body.String(), "Higher-timeframe trend alignment")
	assert.Contains(t, w.Body.String(), `accept="image/*"`)
}

func TestUploadEvaluateReset(t *testing.T) {
	d := newTestDesk(t, &fakeAnalyzer{})

	w, body := d.do(t, uploadRequest(t, "trade.png", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(consts.State_ImageLoaded), body["state"])
	assert.Equal(t, true, body["can_evaluate"])

	w, body = d.do(t, httptest.NewRequest(http.MethodPost, "/evaluate", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := body["analysis"].(map[string]any)
	assert.Equal(t, "EXECUTION APPROVED", result["verdict"])
	assert.EqualValues(t, 8, result["confluenceScore"])

	w, body = d.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EVALUATED", body["label"])
	assert.Equal(t, false, body["can_evaluate"])

	w, _ = d.do(t, httptest.NewRequest(http.MethodPost, "/evaluate", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = d.do(t, httptest.NewRequest(http.MethodPost, "/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(consts.State_Empty), body["state"])
	assert.Nil(t, body["image"])
}

func TestUploadRejectsNonImage(t *testing.T) {
	d := newTestDesk(t, &fakeAnalyzer{})
	w, body := d.do(t, uploadRequest(t, "chart.png", []byte("definitely not a png")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, consts.Msg_NotImage, body["error"])
	assert.Equal(t, consts.State_Empty, d.ctrl.State())
}

func TestEvaluateWithoutImage(t *testing.T) {
	d := newTestDesk(t, &fakeAnalyzer{})
	w, _ := d.do(t, httptest.NewRequest(http.MethodPost, "/evaluate", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateFailureShowsUplinkNotice(t *testing.T) {
	d := newTestDesk(t, &fakeAnalyzer{err: fmt.Errorf("%w: timeout", analysis.ErrAnalysisFailed)})
	w, _ := d.do(t, uploadRequest(t, "trade.png", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code)

	w, body := d.do(t, httptest.NewRequest(http.MethodPost, "/evaluate", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, consts.Msg_UplinkError, body["error"])

	state := body["state"].(map[string]any)
	assert.Equal(t, string(consts.State_ImageLoaded), state["state"])
	assert.Equal(t, false, state["busy"])
	assert.Equal(t, true, state["can_evaluate"])
}

func TestEvaluateWhileBusy(t *testing.T) {
	a := &fakeAnalyzer{started: make(chan struct{}, 1), release: make(chan struct{})}
	d := newTestDesk(t, a)
	w, _ := d.do(t, uploadRequest(t, "trade.png", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code)

	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		d.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/evaluate", nil))
		done <- rec.Code
	}()
	<-a.started

	w, body := d.do(t, httptest.NewRequest(http.MethodPost, "/evaluate", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, true, body["state"].(map[string]any)["busy"])

	close(a.release)
	assert.Equal(t, http.StatusOK, <-done)
}
