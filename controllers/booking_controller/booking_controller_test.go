package booking_controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("LOG_DIR", os.TempDir())
	logger.InitLoggers()
	os.Exit(m.Run())
}

func postBooking(t *testing.T, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	router := gin.New()
	bc := NewBookingController(nil, nil)
	router.POST("/bookings", bc.CreateBooking)

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func validItems() []gin.H {
	return []gin.H{
		{"itemRef": "0191e3a0-1111-7abc-8def-000000000001", "kind": "package", "quantity": 1},
	}
}

func TestCreateBookingRejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload gin.H
	}{
		{"NoItems", gin.H{
			"date":     "2026-09-04",
			"items":    []gin.H{},
			"customer": gin.H{"isGuest": true, "name": "Sam", "email": "sam@example.com"},
		}},
		{"BadItemRef", gin.H{
			"date":     "2026-09-04",
			"items":    []gin.H{{"itemRef": "not-a-uuid", "kind": "package", "quantity": 1}},
			"customer": gin.H{"isGuest": true, "name": "Sam", "email": "sam@example.com"},
		}},
		{"BadKind", gin.H{
			"date":     "2026-09-04",
			"items":    []gin.H{{"itemRef": "0191e3a0-1111-7abc-8def-000000000001", "kind": "room", "quantity": 1}},
			"customer": gin.H{"isGuest": true, "name": "Sam", "email": "sam@example.com"},
		}},
		{"ZeroQuantity", gin.H{
			"date":     "2026-09-04",
			"items":    []gin.H{{"itemRef": "0191e3a0-1111-7abc-8def-000000000001", "kind": "package", "quantity": 0}},
			"customer": gin.H{"isGuest": true, "name": "Sam", "email": "sam@example.com"},
		}},
		{"MissingDate", gin.H{
			"items":    validItems(),
			"customer": gin.H{"isGuest": true, "name": "Sam", "email": "sam@example.com"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postBooking(t, tt.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateBookingInvalidDate(t *testing.T) {
	w := postBooking(t, gin.H{
		"date":     "04/09/2026",
		"items":    validItems(),
		"customer": gin.H{"isGuest": true, "name": "Sam", "email": "sam@example.com"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ReasonInvalidDate, decodeError(t, w)["code"])
}

func TestCreateBookingGuestNeedsNameAndEmail(t *testing.T) {
	tests := []struct {
		name     string
		customer gin.H
	}{
		{"MissingEmail", gin.H{"isGuest": true, "name": "Sam"}},
		{"MissingName", gin.H{"isGuest": true, "email": "sam@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postBooking(t, gin.H{
				"date":     "2026-09-04",
				"items":    validItems(),
				"customer": tt.customer,
			})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, utils.ReasonInvalidCustomer, decodeError(t, w)["code"])
		})
	}
}

func TestCreateBookingRegisteredNeedsIdentity(t *testing.T) {
	// No auth middleware ran, so there is no customer id in the context.
	w := postBooking(t, gin.H{
		"date":     "2026-09-04",
		"items":    validItems(),
		"customer": gin.H{"isGuest": false},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ReasonInvalidCustomer, decodeError(t, w)["code"])
}

func TestGetBookingInvalidID(t *testing.T) {
	router := gin.New()
	bc := NewBookingController(nil, nil)
	router.GET("/bookings/:id", bc.GetBooking)

	req := httptest.NewRequest(http.MethodGet, "/bookings/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
