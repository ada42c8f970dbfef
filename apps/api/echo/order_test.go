package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/core/user"
)

func TestOrderAPI_create(t *testing.T) {
	fix := setup(t)
	crs := seedCourse(t, fix, "Go in Practice")

	buyer := createUser(t, fix, "Buyer", "buyer@test.soma", "Secret123!", user.RoleUser)
	buyerPair := loginUser(t, fix, buyer)

	payload := echo.Map{
		"course_id":    crs.ID,
		"payment_info": echo.Map{"id": "pi_123", "status": "succeeded"},
	}

	rec := doRequest(t, fix, http.MethodPost, "/api/v1/create-order", payload, buyerPair.Access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ord, _ := decodeBody(t, rec)["order"].(map[string]interface{})
	require.NotNil(t, ord)
	assert.Equal(t, crs.ID, ord["course_id"])
	assert.Equal(t, buyer.ID, ord["user_id"])

	// durable effects: grant and counter
	got, err := fix.usrRepo.GetUserByID(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.True(t, got.OwnsCourse(crs.ID))
	updated, err := fix.crsRepo.GetCourseByID(context.Background(), crs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Purchased)

	// side channels: in-app notification and confirmation email
	notifs, err := fix.notifRepo.QueryAllNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "New order", notifs[0].Title)
	sent := fix.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "order-confirmation", sent[0].TemplateName)
	assert.Equal(t, "buyer@test.soma", sent[0].To[0].Address)

	// the session was synced, so buying twice fails outright
	rec = doRequest(t, fix, http.MethodPost, "/api/v1/create-order", payload, buyerPair.Access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "you have already purchased this course", decodeBody(t, rec)["message"])

	orders, err := fix.ordRepo.QueryAllOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderAPI_create_unknownCourse(t *testing.T) {
	fix := setup(t)

	buyer := createUser(t, fix, "Buyer", "buyer@test.soma", "Secret123!", user.RoleUser)
	buyerPair := loginUser(t, fix, buyer)

	rec := doRequest(t, fix, http.MethodPost, "/api/v1/create-order", echo.Map{
		"course_id": "nope",
	}, buyerPair.Access)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	orders, err := fix.ordRepo.QueryAllOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderAPI_queryAll(t *testing.T) {
	fix := setup(t)
	crs := seedCourse(t, fix, "Go in Practice")

	buyer := createUser(t, fix, "Buyer", "buyer@test.soma", "Secret123!", user.RoleUser)
	buyerPair := loginUser(t, fix, buyer)
	adm := createUser(t, fix, "Root", "root@test.soma", "Secret123!", user.RoleAdmin)
	admPair := loginUser(t, fix, adm)

	rec := doRequest(t, fix, http.MethodPost, "/api/v1/create-order", echo.Map{"course_id": crs.ID}, buyerPair.Access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tests := []httpTest{
		{
			name:        "plain user is rejected",
			method:      http.MethodGet,
			path:        "/api/v1/get-all-orders",
			accessToken: buyerPair.Access,
			wantCode:    http.StatusForbidden,
			wantMessage: "role user is not allowed to access this resource",
		},
		{
			name:        "admin lists orders",
			method:      http.MethodGet,
			path:        "/api/v1/get-all-orders",
			accessToken: admPair.Access,
			wantCode:    http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.run(t, fix)
			if tt.wantCode == http.StatusOK {
				orders, _ := decodeBody(t, rec)["orders"].([]interface{})
				assert.Len(t, orders, 1)
			}
		})
	}
}
