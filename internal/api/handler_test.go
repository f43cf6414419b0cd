package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdrop-engine/internal/engine"
	"airdrop-engine/internal/storage"
)

const (
	admin    = "cosmos1admin00"
	operator = "cosmos1operator00"
	creator  = "cosmos1creator00"
	winner   = "cosmos1winner01"
)

const blockTime = int64(1_700_000_000)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	eng := engine.New(storage.NewMemory())
	h := NewHandler(eng, func() time.Time { return time.Unix(blockTime, 0) })
	return Router(h)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func instantiate(t *testing.T, router http.Handler) {
	t.Helper()
	w := do(t, router, "POST", "/v1/platform", map[string]any{
		"sender":         admin,
		"max_batch_size": 3,
		"fee_per_batch":  "1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func registerOperator(t *testing.T, router http.Handler) {
	t.Helper()
	w := do(t, router, "POST", "/v1/operators", map[string]any{
		"sender":   admin,
		"accounts": []string{operator},
		"flags":    []bool{true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func createCampaign(t *testing.T, router http.Handler, payment string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, router, "POST", "/v1/campaigns", map[string]any{
		"sender":      creator,
		"payment":     payment,
		"campaign_id": "camp1",
		"assets": []map[string]any{
			{"asset_type": "fungible", "asset_address": "cosmos1token", "asset_id": "", "available_amount": "100"},
		},
		"starting_time": blockTime + 600,
	})
}

func TestInstantiateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	instantiate(t, router)

	t.Run("second instantiation conflicts", func(t *testing.T) {
		w := do(t, router, "POST", "/v1/platform", map[string]any{
			"sender":         admin,
			"max_batch_size": 3,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing sender rejected", func(t *testing.T) {
		w := do(t, router, "POST", "/v1/platform", map[string]any{"max_batch_size": 3})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/platform", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCampaignEndpoints(t *testing.T) {
	router := newTestRouter(t)
	instantiate(t, router)
	registerOperator(t, router)

	t.Run("create with overpayment returns refund instruction", func(t *testing.T) {
		w := createCampaign(t, router, "20")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp engine.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Instructions, 1)
		assert.Equal(t, engine.InstructionNativeSend, resp.Instructions[0].Kind)
		assert.Equal(t, creator, resp.Instructions[0].To)
		assert.Equal(t, uint256.NewInt(19), resp.Instructions[0].Amount)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		w := createCampaign(t, router, "1")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("get returns the stored campaign", func(t *testing.T) {
		w := do(t, router, "GET", "/v1/campaigns/camp1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var campaign engine.AirdropCampaign
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &campaign))
		assert.Equal(t, "camp1", campaign.CampaignID)
		assert.Equal(t, uint256.NewInt(100), campaign.TotalAvailableAssets)
	})

	t.Run("unknown campaign is 404", func(t *testing.T) {
		w := do(t, router, "GET", "/v1/campaigns/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("airdrop by non-operator is forbidden", func(t *testing.T) {
		w := do(t, router, "POST", "/v1/campaigns/camp1/airdrop", map[string]any{
			"sender":        winner,
			"asset_indexes": []uint64{0},
			"recipients":    []string{winner},
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("airdrop before start conflicts", func(t *testing.T) {
		w := do(t, router, "POST", "/v1/campaigns/camp1/airdrop", map[string]any{
			"sender":        operator,
			"asset_indexes": []uint64{0},
			"recipients":    []string{winner},
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestCreateCampaign_InsufficientFee(t *testing.T) {
	router := newTestRouter(t)
	instantiate(t, router)

	w := createCampaign(t, router, "0")
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	// Failed create leaves no record behind.
	got := do(t, router, "GET", "/v1/campaigns/camp1", nil)
	assert.Equal(t, http.StatusNotFound, got.Code)
}

func TestFeeEndpoints(t *testing.T) {
	router := newTestRouter(t)
	instantiate(t, router)

	t.Run("estimate", func(t *testing.T) {
		w := do(t, router, "GET", "/v1/fees/estimate?num_assets=5", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]*uint256.Int
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, uint256.NewInt(2), resp["fee"])
	})

	t.Run("estimate without num_assets", func(t *testing.T) {
		w := do(t, router, "GET", "/v1/fees/estimate", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("withdraw by non-admin is forbidden", func(t *testing.T) {
		w := do(t, router, "POST", "/v1/fees/withdraw", map[string]any{
			"sender":    creator,
			"recipient": creator,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOperatorEndpoints(t *testing.T) {
	router := newTestRouter(t)
	instantiate(t, router)
	registerOperator(t, router)

	t.Run("registered operator", func(t *testing.T) {
		w := do(t, router, "GET", "/v1/operators/"+operator, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Account    string `json:"account"`
			IsOperator bool   `json:"is_operator"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, operator, resp.Account)
		assert.True(t, resp.IsOperator)
	})

	t.Run("unregistered account", func(t *testing.T) {
		w := do(t, router, "GET", "/v1/operators/cosmos1nobody", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			IsOperator bool `json:"is_operator"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.IsOperator)
	})

	t.Run("set by non-admin is forbidden", func(t *testing.T) {
		w := do(t, router, "POST", "/v1/operators", map[string]any{
			"sender":   creator,
			"accounts": []string{winner},
			"flags":    []bool{true},
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("length mismatch rejected", func(t *testing.T) {
		w := do(t, router, "POST", "/v1/operators", map[string]any{
			"sender":   admin,
			"accounts": []string{winner},
			"flags":    []bool{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
