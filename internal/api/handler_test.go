package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"floor-service-backend/internal/activity"
	"floor-service-backend/internal/db"
	"floor-service-backend/internal/floor"
	"floor-service-backend/internal/kitchen"
	"floor-service-backend/internal/ledger"
	"floor-service-backend/internal/menu"
	"floor-service-backend/internal/model"
	"floor-service-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	store  store.Store
}

func newTestServer(t *testing.T, opts ...func(*Deps)) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	require.NoError(t, gdb.Create(&model.Floor{ID: "floor-1", Name: "Ground Floor", OutletID: "outlet-1"}).Error)
	require.NoError(t, gdb.Create(&[]model.DiningTable{
		{ID: "t-1", Name: "Table 1", Capacity: 2, FloorID: "floor-1", Status: model.TableAvailable, AssignedWaiterID: "user-6"},
		{ID: "t-2", Name: "Table 2", Capacity: 4, FloorID: "floor-1", Status: model.TableAvailable, AssignedWaiterID: "user-6"},
	}).Error)
	require.NoError(t, gdb.Create(&[]model.MenuItem{
		{ID: "menu-1", Name: "Paneer Tikka", Price: 350, Category: "Starters"},
		{ID: "menu-2", Name: "Garlic Naan", Price: 80, Category: "Breads"},
	}).Error)

	st := store.NewGormStore(gdb)
	catalog := menu.NewGormCatalog(gdb)
	lg := ledger.NewService(st, catalog)
	deps := Deps{
		Store:    st,
		Floor:    floor.NewService(st, activity.NewNotifier(gdb), "outlet-1"),
		Ledger:   lg,
		Kitchen:  kitchen.NewService(st, lg, catalog, "outlet-1"),
		Catalog:  catalog,
		Notifier: activity.NewNotifier(gdb),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	router := NewRouter(NewHandler(deps), RouterConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Nanosecond, // effectively disables read snapshots
	})
	return &testServer{router: router, db: gdb, store: st}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "user-1")
	req.Header.Set("X-Actor-Role", "manager")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (s *testServer) startSeating(t *testing.T, tableIDs ...string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/seatings", gin.H{"tableIds": tableIDs, "covers": 2, "waiterId": "user-6"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	seating := decode(t, w)["seating"].(map[string]interface{})
	return seating["id"].(string)
}

func TestPostSeatingValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/seatings", gin.H{"covers": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/seatings", gin.H{"tableIds": []string{"t-1"}, "covers": 3, "waiterId": "user-6"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_covers", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/seatings", gin.H{"tableIds": []string{"t-404"}, "covers": 2, "waiterId": "user-6"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.startSeating(t, "t-1")
	w = s.do(t, http.MethodPost, "/api/seatings", gin.H{"tableIds": []string{"t-1"}, "covers": 2, "waiterId": "user-6"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "table_unavailable", decode(t, w)["error"])
}

func TestSeatingLinesAndCloseStatusCodes(t *testing.T) {
	s := newTestServer(t)
	id := s.startSeating(t, "t-1")

	w := s.do(t, http.MethodPost, "/api/seatings/"+id+"/lines", gin.H{
		"items": []gin.H{{"itemId": "menu-404", "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "unknown_menu_item", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/seatings/"+id+"/lines", gin.H{
		"items": []gin.H{{"itemId": "menu-1", "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, 700.0, body["seating"].(map[string]interface{})["total"])
	assert.NotNil(t, body["ticket"])

	w = s.do(t, http.MethodPost, "/api/seatings/"+id+"/cancel-line", gin.H{"lineId": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/seatings/"+id+"/close", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/seatings/"+id+"/close", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_closed", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/seatings/"+id+"/lines", gin.H{
		"items": []gin.H{{"itemId": "menu-1", "quantity": 1}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "seating_closed", decode(t, w)["error"])
}

func TestTicketEndpoints(t *testing.T) {
	s := newTestServer(t)
	id := s.startSeating(t, "t-1")

	w := s.do(t, http.MethodPost, "/api/seatings/"+id+"/lines", gin.H{
		"items": []gin.H{{"itemId": "menu-1", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	ticketID := decode(t, w)["ticket"].(map[string]interface{})["id"].(string)

	// Skipping Preparing is rejected.
	w = s.do(t, http.MethodPost, "/api/tickets/"+ticketID+"/lines/0/advance", gin.H{"newStatus": "Ready"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/tickets/"+ticketID+"/lines/0/advance", gin.H{"newStatus": "Preparing"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/tickets/"+ticketID+"/lines/7/advance", gin.H{"newStatus": "Ready"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/tickets/"+ticketID+"/lines/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/tickets/"+ticketID+"/lines/0", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/tickets", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "outlet_id is required")
}

func TestPostTicketTakeawayAndDineIn(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/tickets", gin.H{
		"orderType": "Takeaway",
		"items":     []gin.H{{"itemId": "menu-2", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Takeaway #1", decode(t, w)["displayLabel"])

	// Dine-in dispatch needs a table key.
	w = s.do(t, http.MethodPost, "/api/tickets", gin.H{
		"orderType": "DineIn",
		"items":     []gin.H{{"itemId": "menu-2", "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// And an open seating behind the key.
	w = s.do(t, http.MethodPost, "/api/tickets", gin.H{
		"orderType":     "DineIn",
		"tableOrClubId": "t-1",
		"items":         []gin.H{{"itemId": "menu-2", "quantity": 1}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no_open_seating", decode(t, w)["error"])

	s.startSeating(t, "t-1")
	w = s.do(t, http.MethodPost, "/api/tickets", gin.H{
		"orderType":     "DineIn",
		"tableOrClubId": "t-1",
		"items":         []gin.H{{"itemId": "menu-2", "quantity": 1}},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Table 1", decode(t, w)["displayLabel"])
}

func TestFloorAndMenuReads(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.NeedsAttentionAfter = time.Minute })

	w := s.do(t, http.MethodGet, "/api/floors?outlet_id=outlet-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var floors []model.Floor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &floors))
	require.Len(t, floors, 1)
	assert.Equal(t, "Ground Floor", floors[0].Name)

	// A long-seated table is flagged for attention at read time.
	s.startSeating(t, "t-1")
	past := time.Now().UTC().Add(-5 * time.Minute)
	require.NoError(t, s.db.Model(&model.DiningTable{}).Where("id = ?", "t-1").
		Update("seated_at", past).Error)

	w = s.do(t, http.MethodGet, "/api/floors/floor-1/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "t-1", views[0]["id"])
	assert.Equal(t, true, views[0]["needsAttention"])
	assert.Greater(t, views[0]["seatedForSeconds"].(float64), 0.0)
	assert.Equal(t, false, views[1]["needsAttention"])

	w = s.do(t, http.MethodGet, "/api/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []model.MenuItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}

func TestActivityEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/activity", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.startSeating(t, "t-1")
	w = s.do(t, http.MethodGet, "/api/activity?outlet_id=outlet-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []model.ActivityEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Seating Started", entries[0].Action)
	assert.Equal(t, "user-1", entries[0].ActorID)
}

func TestSubscriptionLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/subscriptions", gin.H{"endpoint": "https://push.example.com/a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	payload := gin.H{
		"endpoint":  "https://push.example.com/a",
		"p256dh":    "key",
		"auth":      "auth",
		"waiter_id": "user-6",
	}
	w = s.do(t, http.MethodPut, "/api/subscriptions", payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Re-registering the same endpoint replaces the binding.
	payload["waiter_id"] = "user-9"
	w = s.do(t, http.MethodPut, "/api/subscriptions", payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-9", decode(t, w)["waiter_id"])

	w = s.do(t, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://push.example.com/a"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVAPIDPublicKeyEndpoint(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		d.Webpush = &webpush.Options{VAPIDPublicKey: "test-public-key"}
	})
	w := s.do(t, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-public-key", decode(t, w)["public_key"])
}

func TestVAPIDPublicKeyUnconfigured(t *testing.T) {
	h := NewHandler(Deps{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.GetVAPIDPublicKey(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
