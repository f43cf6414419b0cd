package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"airdrop-engine/internal/engine"
	"airdrop-engine/internal/observability"
)

// Handler maps the contract entry points onto HTTP. Caller identity and any
// attached payment arrive in the request body; block time is taken from the
// service clock at call admission.
type Handler struct {
	eng      *engine.Engine
	now      func() time.Time
	validate *validator.Validate
}

func NewHandler(eng *engine.Engine, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{eng: eng, now: now, validate: validator.New()}
}

func (h *Handler) env() engine.Env {
	return engine.Env{BlockTime: uint64(h.now().Unix())}
}

type instantiateRequest struct {
	Sender       string       `json:"sender" validate:"required"`
	MaxBatchSize uint64       `json:"max_batch_size" validate:"required"`
	FeePerBatch  *uint256.Int `json:"fee_per_batch"`
}

type updatePlatformRequest struct {
	Sender       string       `json:"sender" validate:"required"`
	MaxBatchSize *uint64      `json:"max_batch_size"`
	FeePerBatch  *uint256.Int `json:"fee_per_batch"`
}

type setOperatorsRequest struct {
	Sender   string   `json:"sender" validate:"required"`
	Accounts []string `json:"accounts"`
	Flags    []bool   `json:"flags"`
}

type campaignRequest struct {
	Sender       string         `json:"sender" validate:"required"`
	Payment      *uint256.Int   `json:"payment"`
	CampaignID   string         `json:"campaign_id"`
	Assets       []engine.Asset `json:"assets"`
	StartingTime uint64         `json:"starting_time" validate:"required"`
}

type airdropRequest struct {
	Sender       string   `json:"sender" validate:"required"`
	AssetIndexes []uint64 `json:"asset_indexes"`
	Recipients   []string `json:"recipients"`
}

type withdrawRequest struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) Instantiate(w http.ResponseWriter, r *http.Request) {
	var req instantiateRequest
	if !h.decode(w, r, &req) {
		return
	}
	platform, err := h.eng.Instantiate(r.Context(), engine.Info{Sender: req.Sender}, engine.InstantiateMsg{
		MaxBatchSize: req.MaxBatchSize,
		FeePerBatch:  req.FeePerBatch,
	})
	if err != nil {
		h.fail(w, "instantiate", err)
		return
	}
	observability.ExecutesTotal.WithLabelValues("instantiate", "ok").Inc()
	writeJSON(w, http.StatusCreated, platform)
}

func (h *Handler) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	var req updatePlatformRequest
	if !h.decode(w, r, &req) {
		return
	}
	platform, err := h.eng.UpdatePlatformConfig(r.Context(), engine.Info{Sender: req.Sender}, engine.UpdatePlatformMsg{
		MaxBatchSize: req.MaxBatchSize,
		FeePerBatch:  req.FeePerBatch,
	})
	if err != nil {
		h.fail(w, "update_platform", err)
		return
	}
	observability.ExecutesTotal.WithLabelValues("update_platform", "ok").Inc()
	writeJSON(w, http.StatusOK, platform)
}

func (h *Handler) SetOperators(w http.ResponseWriter, r *http.Request) {
	var req setOperatorsRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.eng.SetOperators(r.Context(), engine.Info{Sender: req.Sender}, engine.SetOperatorsMsg{
		Accounts: req.Accounts,
		Flags:    req.Flags,
	})
	h.respond(w, "set_operators", resp, err)
}

func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.CampaignID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "campaign_id is required"})
		return
	}
	resp, err := h.eng.CreateCampaign(r.Context(), h.env(),
		engine.Info{Sender: req.Sender, Payment: req.Payment},
		engine.CreateCampaignMsg{
			CampaignID:   req.CampaignID,
			Assets:       req.Assets,
			StartingTime: req.StartingTime,
		})
	h.respond(w, "create_campaign", resp, err)
}

func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.eng.UpdateCampaign(r.Context(), h.env(),
		engine.Info{Sender: req.Sender, Payment: req.Payment},
		engine.UpdateCampaignMsg{
			CampaignID:   chi.URLParam(r, "id"),
			Assets:       req.Assets,
			StartingTime: req.StartingTime,
		})
	h.respond(w, "update_campaign", resp, err)
}

func (h *Handler) Airdrop(w http.ResponseWriter, r *http.Request) {
	var req airdropRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.eng.Airdrop(r.Context(), h.env(),
		engine.Info{Sender: req.Sender},
		engine.AirdropMsg{
			CampaignID:   chi.URLParam(r, "id"),
			AssetIndexes: req.AssetIndexes,
			Recipients:   req.Recipients,
		})
	h.respond(w, "airdrop", resp, err)
}

func (h *Handler) WithdrawFee(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.eng.WithdrawFee(r.Context(), engine.Info{Sender: req.Sender}, engine.WithdrawFeeMsg{
		Recipient: req.Recipient,
	})
	h.respond(w, "withdraw_fee", resp, err)
}

func (h *Handler) EstimateFee(w http.ResponseWriter, r *http.Request) {
	numAssets, err := strconv.ParseUint(r.URL.Query().Get("num_assets"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "num_assets must be a non-negative integer"})
		return
	}
	fee, err := h.eng.EstimateAirdropFee(r.Context(), numAssets)
	if err != nil {
		h.fail(w, "estimate_fee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*uint256.Int{"fee": fee})
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.eng.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (h *Handler) GetOperator(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	authorized, err := h.eng.IsOperator(r.Context(), account)
	if err != nil {
		h.fail(w, "get_operator", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account, "is_operator": authorized})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("decode request: %v", err)})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return false
	}
	return true
}

// respond finalizes an execute call: metrics, error mapping, and the
// instruction list for the host to apply.
func (h *Handler) respond(w http.ResponseWriter, action string, resp *engine.Response, err error) {
	if err != nil {
		h.fail(w, action, err)
		return
	}
	observability.ExecutesTotal.WithLabelValues(action, "ok").Inc()
	if resp.Instructions == nil {
		resp.Instructions = []engine.Instruction{}
	}
	for _, ins := range resp.Instructions {
		observability.InstructionsEmitted.WithLabelValues(string(ins.Kind)).Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	observability.ExecutesTotal.WithLabelValues(action, "error").Inc()
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("action", action).Msg("call failed")
	} else {
		log.Debug().Err(err).Str("action", action).Msg("call rejected")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	var (
		notAdmin     *engine.NotAdminError
		notOperator  *engine.NotOperatorError
		notCreator   *engine.NotCreatorError
		notFound     *engine.CampaignNotFoundError
		exists       *engine.CampaignExistsError
		notActive    *engine.CampaignNotActiveError
		windowClosed *engine.UpdateWindowClosedError
		insufficient *engine.InsufficientFeeError
		startTime    *engine.InvalidStartTimeError
		assetType    *engine.InvalidAssetTypeError
		assetID      *engine.InvalidAssetIDError
		assetAmount  *engine.InvalidAssetAmountError
		address      *engine.InvalidAddressError
		tooLarge     *engine.BatchTooLargeError
		outOfBounds  *engine.IndexOutOfBoundsError
		duplicate    *engine.DuplicateIndexError
	)
	switch {
	case errors.As(err, &notAdmin), errors.As(err, &notOperator), errors.As(err, &notCreator):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &exists),
		errors.As(err, &notActive),
		errors.As(err, &windowClosed),
		errors.Is(err, engine.ErrAlreadyInstantiated),
		errors.Is(err, engine.ErrNotInstantiated):
		return http.StatusConflict
	case errors.As(err, &insufficient):
		return http.StatusPaymentRequired
	case errors.As(err, &startTime),
		errors.As(err, &assetType),
		errors.As(err, &assetID),
		errors.As(err, &assetAmount),
		errors.As(err, &address),
		errors.As(err, &tooLarge),
		errors.As(err, &outOfBounds),
		errors.As(err, &duplicate),
		errors.Is(err, engine.ErrLengthMismatch),
		errors.Is(err, engine.ErrZeroMaxBatchSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
