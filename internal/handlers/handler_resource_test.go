package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/SscSPs/finance_sync/internal/adapters/datalayer"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/core/services"
	"github.com/SscSPs/finance_sync/internal/dto"
	"github.com/SscSPs/finance_sync/internal/handlers"
	"github.com/SscSPs/finance_sync/internal/platform/config"
	"github.com/SscSPs/finance_sync/internal/repositories/memory"
	"github.com/SscSPs/finance_sync/internal/store"
	"github.com/SscSPs/finance_sync/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "test-secret-key-that-is-long-enough"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    testJWTSecret,
		RateLimit:    "1000-M",
		IsProduction: true,
	}
}

func generateTestToken(t *testing.T, userID string) string {
	t.Helper()
	signed, err := utils.GenerateJWT(userID, testJWTSecret, time.Hour, "finance_sync_test")
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

// --- Test Suite Setup ---
type ResourceHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	container *services.Container
	token     string
}

func (suite *ResourceHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dl, err := datalayer.NewOfflineDataLayer(memory.NewResourceRepository())
	suite.Require().NoError(err)
	suite.container, err = services.NewContainer(services.ContainerConfig{DataLayerTimeout: time.Second}, dl, nil)
	suite.Require().NoError(err)

	suite.router = gin.New()
	suite.Require().NoError(handlers.RegisterRoutes(suite.router, testConfig(), suite.container.Services(), nil))
	suite.token = generateTestToken(suite.T(), uuid.NewString())
}

func TestResourceHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ResourceHandlerTestSuite))
}

func (suite *ResourceHandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+suite.token)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *ResourceHandlerTestSuite) createContact(name, email string) domain.Contact {
	w := suite.do(http.MethodPost, "/api/v1/resources/contacts", map[string]string{"name": name, "email": email})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created domain.Contact
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	return created
}

func (suite *ResourceHandlerTestSuite) TestHealthIsPublic() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func (suite *ResourceHandlerTestSuite) TestAPIRequiresToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *ResourceHandlerTestSuite) TestCreateShowsUpInListAndState() {
	created := suite.createContact("Ana", "ana@example.com")
	suite.NotEmpty(created.ID)
	suite.False(created.CreatedAt.IsZero())

	w := suite.do(http.MethodGet, "/api/v1/resources/contacts", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Resource string            `json:"resource"`
		Items    []json.RawMessage `json:"items"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	suite.Equal("contacts", list.Resource)
	suite.Len(list.Items, 1)

	w = suite.do(http.MethodGet, "/api/v1/state", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var state struct {
		Resources map[string]struct {
			Items []json.RawMessage `json:"items"`
		} `json:"resources"`
		IsOnline bool `json:"isOnline"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &state))
	suite.Len(state.Resources["contacts"].Items, 1)
	suite.Len(state.Resources["shared-debts"].Items, 0)
	suite.True(state.IsOnline)
}

func (suite *ResourceHandlerTestSuite) TestListPagesWithCursor() {
	for _, name := range []string{"Ana", "Bo", "Cy"} {
		suite.createContact(name, "")
	}

	w := suite.do(http.MethodGet, "/api/v1/resources/contacts?limit=2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page struct {
		Items      []json.RawMessage `json:"items"`
		NextCursor string            `json:"nextCursor"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	suite.Len(page.Items, 2)
	suite.Require().NotEmpty(page.NextCursor)

	w = suite.do(http.MethodGet, "/api/v1/resources/contacts?limit=2&cursor="+url.QueryEscape(page.NextCursor), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var second struct {
		Items      []json.RawMessage `json:"items"`
		NextCursor string            `json:"nextCursor"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &second))
	suite.Len(second.Items, 1)
	suite.Empty(second.NextCursor)
}

func (suite *ResourceHandlerTestSuite) TestBadRequests() {
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "unknown resource", method: http.MethodGet, path: "/api/v1/resources/budgets", want: http.StatusBadRequest},
		{name: "missing body", method: http.MethodPost, path: "/api/v1/resources/contacts", want: http.StatusBadRequest},
		{name: "validation failure", method: http.MethodPost, path: "/api/v1/resources/contacts", body: map[string]string{"email": "not-an-email"}, want: http.StatusBadRequest},
		{name: "bad limit", method: http.MethodGet, path: "/api/v1/resources/contacts?limit=abc", want: http.StatusBadRequest},
		{name: "missing entity", method: http.MethodGet, path: "/api/v1/resources/contacts/nope", want: http.StatusNotFound},
		{name: "delete missing entity", method: http.MethodDelete, path: "/api/v1/resources/goals/nope", want: http.StatusNotFound},
		{name: "invalidate unknown resource", method: http.MethodPost, path: "/api/v1/cache/invalidate", body: map[string]string{"resource": "budgets"}, want: http.StatusBadRequest},
		{name: "connectivity without flag", method: http.MethodPut, path: "/api/v1/sync/connectivity", body: map[string]string{}, want: http.StatusBadRequest},
		{name: "dashboard bad date", method: http.MethodGet, path: "/api/v1/dashboard?date=15/03/2024", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.do(tt.method, tt.path, tt.body)
			suite.Equal(tt.want, w.Code, w.Body.String())
			if w.Code >= http.StatusBadRequest {
				var body map[string]string
				suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
				suite.NotEmpty(body["error"])
			}
		})
	}
}

func (suite *ResourceHandlerTestSuite) TestUpdateWithStalePreconditionConflicts() {
	created := suite.createContact("Ana", "")

	stale := created.UpdatedAt.Add(-time.Minute).Format(time.RFC3339Nano)
	w := suite.do(http.MethodPut, "/api/v1/resources/contacts/"+created.ID+"?expectedUpdatedAt="+url.QueryEscape(stale),
		map[string]string{"name": "Ana Maria"})
	suite.Equal(http.StatusConflict, w.Code, w.Body.String())

	fresh := created.UpdatedAt.Format(time.RFC3339Nano)
	w = suite.do(http.MethodPut, "/api/v1/resources/contacts/"+created.ID+"?expectedUpdatedAt="+url.QueryEscape(fresh),
		map[string]string{"name": "Ana Maria"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	e, ok := suite.container.Store.View().Find(domain.Contacts, created.ID)
	suite.Require().True(ok)
	suite.Equal("Ana Maria", e.(*domain.Contact).Name)
}

func (suite *ResourceHandlerTestSuite) TestDeleteAndClearError() {
	created := suite.createContact("Ana", "")

	w := suite.do(http.MethodDelete, "/api/v1/resources/contacts/"+created.ID, nil)
	suite.Equal(http.StatusNoContent, w.Code)
	suite.Empty(suite.container.Store.View().Collection(domain.Contacts))

	w = suite.do(http.MethodDelete, "/api/v1/resources/contacts/"+created.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
	_, recorded := suite.container.Store.View().Error(domain.Contacts)
	suite.True(recorded)

	w = suite.do(http.MethodDelete, "/api/v1/errors/contacts", nil)
	suite.Equal(http.StatusNoContent, w.Code)
	_, recorded = suite.container.Store.View().Error(domain.Contacts)
	suite.False(recorded)
}

func (suite *ResourceHandlerTestSuite) TestRefreshReloadsStore() {
	created := suite.createContact("Ana", "")
	suite.container.Store.Dispatch(store.Set(domain.Contacts, nil))

	w := suite.do(http.MethodPost, "/api/v1/resources/contacts/refresh", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	_, ok := suite.container.Store.View().Find(domain.Contacts, created.ID)
	suite.True(ok)

	w = suite.do(http.MethodPost, "/api/v1/refresh", map[string][]string{"resources": {"goals", "contacts"}})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/refresh", map[string][]string{"resources": {"budgets"}})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ResourceHandlerTestSuite) TestOfflineRoundTripOverHTTP() {
	w := suite.do(http.MethodPut, "/api/v1/sync/connectivity", map[string]bool{"online": false})
	suite.Require().Equal(http.StatusOK, w.Code)
	var status domain.SyncStatus
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &status))
	suite.False(status.IsOnline)

	created := suite.createContact("Queued", "")
	suite.NotEmpty(created.ID)

	w = suite.do(http.MethodGet, "/api/v1/sync", nil)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &status))
	suite.Equal(1, status.PendingOperations)

	w = suite.do(http.MethodPut, "/api/v1/sync/connectivity", map[string]bool{"online": true})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &status))
	suite.True(status.IsOnline)
	suite.Equal(0, status.PendingOperations)

	w = suite.do(http.MethodGet, "/api/v1/notifications?limit=5", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var feed dto.NotificationsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &feed))
	suite.Require().NotEmpty(feed.Notifications)
	suite.Equal(domain.NotifySuccess, feed.Notifications[0].Level)
}

func (suite *ResourceHandlerTestSuite) TestDashboardReflectsStore() {
	w := suite.do(http.MethodPost, "/api/v1/resources/transactions", map[string]any{
		"amount": "42", "type": "expense", "category": "food", "accountId": "a1",
		"date": "2024-03-10T12:00:00Z", "description": "groceries",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/v1/dashboard?date=2024-03-15", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var metrics domain.DashboardMetrics
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &metrics))
	suite.Equal("42", metrics.TotalExpenses.String())
	suite.Len(metrics.RecentTransactions, 1)
}

func (suite *ResourceHandlerTestSuite) TestSyncEndpoints() {
	w := suite.do(http.MethodPost, "/api/v1/sync", nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/sync/force", nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/cache/invalidate", map[string]string{"resource": "contacts"})
	suite.Equal(http.StatusNoContent, w.Code)
}
