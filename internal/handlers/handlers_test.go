package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKit struct {
	generated   *models.GenerateKitRequest
	regenerated *models.RegenerateKitRequest
	err         error
}

func (f *fakeKit) Generate(_ context.Context, req *models.GenerateKitRequest) (*models.GenerateKitResponse, error) {
	f.generated = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.GenerateKitResponse{Status: "success", PropertyID: "prop_1", KitCreated: true}, nil
}

func (f *fakeKit) Regenerate(_ context.Context, req *models.RegenerateKitRequest) (*models.GenerateKitResponse, error) {
	f.regenerated = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.GenerateKitResponse{Status: "success", PropertyID: req.PropertyID}, nil
}

type fakeTour struct{ err error }

func (f *fakeTour) Tour(_ context.Context, req *models.PropertyTourRequest) (*models.PropertyTourResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.PropertyTourResponse{Property: &models.Property{ID: req.PropertyID}}, nil
}

func (f *fakeTour) ListProperties(_ context.Context, req *models.ListPropertiesRequest) (*models.ListPropertiesResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ListPropertiesResponse{Properties: []models.Property{{ID: "prop_1", UserID: req.UserID}}}, nil
}

func kitGetter(svc KitService) Getter[KitService] {
	return func() (KitService, error) { return svc, nil }
}

func tourGetter(svc TourService) Getter[TourService] {
	return func() (TourService, error) { return svc, nil }
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGenerateKitSuccess(t *testing.T) {
	svc := &fakeKit{}
	body := `{"user":{"id":"u1","email":"a@b.com"},"property":{"address":"123 Main St","price":500000},"files":[{"filename":"a.jpg","type":"photo","url":"https://x/a.jpg"}]}`
	rec := httptest.NewRecorder()

	GenerateKit(kitGetter(svc))(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NotNil(t, svc.generated)
	assert.Equal(t, models.FormValue("500000"), svc.generated.Property.Price)
	assert.Equal(t, "u1", svc.generated.User.ID)

	var res models.GenerateKitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "prop_1", res.PropertyID)
}

func TestGenerateKitErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: missing address", pipeline.ErrValidation), http.StatusBadRequest},
		{pipeline.ErrTimeout, http.StatusGatewayTimeout},
		{pipeline.ErrGenerationInProgress, http.StatusConflict},
		{fmt.Errorf("%w: boom", pipeline.ErrContentGeneration), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		GenerateKit(kitGetter(&fakeKit{err: tc.err}))(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))

		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		body := decodeError(t, rec)
		assert.Equal(t, "error", body.Status)
		assert.Equal(t, pipeline.UserMessage(tc.err), body.Message)
	}
}

func TestBadJSONAndInitFailure(t *testing.T) {
	svc := &fakeKit{}
	rec := httptest.NewRecorder()
	RegenerateKit(kitGetter(svc))(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.regenerated)

	failing := func() (KitService, error) { return nil, errors.New("no credentials") }
	rec = httptest.NewRecorder()
	RegenerateKit(failing)(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRegenerateKitPassesRequest(t *testing.T) {
	svc := &fakeKit{}
	rec := httptest.NewRecorder()
	RegenerateKit(kitGetter(svc))(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"propertyId":"prop_9","userId":"u1"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.regenerated)
	assert.Equal(t, "prop_9", svc.regenerated.PropertyID)
}

func TestPropertyTourQueryAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	PropertyTour(tourGetter(&fakeTour{}))(rec, httptest.NewRequest(http.MethodGet, "/?propertyId=prop_3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.PropertyTourResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "prop_3", res.Property.ID)

	rec = httptest.NewRecorder()
	PropertyTour(tourGetter(&fakeTour{}))(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"propertyId":"prop_4"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "prop_4", res.Property.ID)

	rec = httptest.NewRecorder()
	PropertyTour(tourGetter(&fakeTour{err: fmt.Errorf("property x: %w", pipeline.ErrNotFound)}))(rec, httptest.NewRequest(http.MethodGet, "/?propertyId=x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProperties(t *testing.T) {
	rec := httptest.NewRecorder()
	ListProperties(tourGetter(&fakeTour{}))(rec, httptest.NewRequest(http.MethodGet, "/?userId=u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.ListPropertiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Properties, 1)
	assert.Equal(t, "u1", res.Properties[0].UserID)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	Metrics().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
