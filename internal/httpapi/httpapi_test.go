package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventory-voice-lab/internal/inventory"
)

func testApp(t *testing.T) (*fiber.App, *inventory.Service) {
	t.Helper()
	dir := t.TempDir()
	db, err := inventory.Open(filepath.Join(dir, "inventory.db"))
	require.NoError(t, err)
	inv, err := inventory.NewService(db, dir)
	require.NoError(t, err)
	return NewApp(inv), inv
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// TestHealth verifies the root endpoint reports the service as running.
func TestHealth(t *testing.T) {
	app, _ := testApp(t)
	resp, body := doJSON(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "running", body["status"])
}

// TestEnterInventoryValidation verifies missing key fields are rejected
// with a 400.
func TestEnterInventoryValidation(t *testing.T) {
	app, _ := testApp(t)
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/inventory/enter",
		map[string]interface{}{"property_id": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

// TestEnterInventoryCreates verifies a valid request creates the inventory
// and returns it.
func TestEnterInventoryCreates(t *testing.T) {
	app, inv := testApp(t)
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/inventory/enter",
		map[string]interface{}{"property_id": 1, "inventory_type_id": 2, "event_id": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	require.NotNil(t, body["inventory"])

	invID, _, _ := inv.Current()
	require.NotNil(t, invID)
	got := body["inventory"].(map[string]interface{})
	assert.Equal(t, *invID, got["id"])
}

// TestGetInventoryNotFound verifies unknown ids return 404.
func TestGetInventoryNotFound(t *testing.T) {
	app, _ := testApp(t)
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/inventory/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

// TestListInventoriesRoundTrip verifies entered data is visible through the
// listing endpoint with its nested hierarchy.
func TestListInventoriesRoundTrip(t *testing.T) {
	app, inv := testApp(t)
	ctx := context.Background()
	_, err := inv.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, err = inv.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/inventory", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["inventories"].([]interface{})
	require.Len(t, items, 1)
	spaces := items[0].(map[string]interface{})["spaces"].([]interface{})
	require.Len(t, spaces, 1)
	assert.Equal(t, "Cocina", spaces[0].(map[string]interface{})["name"])
}

// TestPendingSyncAndMark verifies the sync endpoints report and clear
// pending rows.
func TestPendingSyncAndMark(t *testing.T) {
	app, inv := testApp(t)
	ctx := context.Background()
	created, err := inv.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)

	_, body := doJSON(t, app, http.MethodGet, "/api/v1/inventory/sync/pending", nil)
	pending := body["pending"].(map[string]interface{})
	require.Len(t, pending["inventories"].([]interface{}), 1)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/inventory/sync/mark",
		map[string]interface{}{"inventories": []string{created.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["marked"])

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/inventory/sync/pending", nil)
	pending = body["pending"].(map[string]interface{})
	assert.Empty(t, pending["inventories"])
}

// TestUploadVideo verifies the raw payload lands under the current space
// and out-of-context uploads are rejected.
func TestUploadVideo(t *testing.T) {
	app, inv := testApp(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", bytes.NewReader([]byte("clip")))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, err = inv.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, err = inv.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/videos?description=walkthrough", bytes.NewReader([]byte("clip")))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	video := body["video"].(map[string]interface{})
	assert.NotEmpty(t, video["path"])
}

// TestListSpacesForInventory verifies the nested listing route.
func TestListSpacesForInventory(t *testing.T) {
	app, inv := testApp(t)
	ctx := context.Background()
	created, err := inv.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, err = inv.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/inventory/"+created.ID+"/spaces", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	spaces := body["spaces"].([]interface{})
	require.Len(t, spaces, 1)
	assert.Equal(t, "Cocina", spaces[0].(map[string]interface{})["name"])
}
