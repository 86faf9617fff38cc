package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/service"
)

// MarketHandler handles HTTP requests for instrument endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// instrumentResponse is one instrument with its latest price.
type instrumentResponse struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Price     string   `json:"price"`
	Tick      int64    `json:"tick"`
	UpdatedAt string   `json:"updated_at"`
	Members   []string `json:"members,omitempty"`
}

// marketResponse is the JSON response for GET /instruments.
type marketResponse struct {
	Teams []instrumentResponse `json:"teams"`
	ETFs  []instrumentResponse `json:"etfs"`
}

// quoteResponse is a single price point.
type quoteResponse struct {
	Instrument string `json:"instrument,omitempty"`
	Price      string `json:"price"`
	Tick       int64  `json:"tick"`
	Timestamp  string `json:"timestamp"`
}

// priceHistoryResponse is the JSON response for GET /instruments/{name}/history.
type priceHistoryResponse struct {
	Instrument string          `json:"instrument"`
	History    []quoteResponse `json:"history"`
}

// List handles GET /instruments.
func (h *MarketHandler) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.marketSvc.ListInstruments(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	resp := marketResponse{
		Teams: make([]instrumentResponse, 0, len(listing.Teams)),
		ETFs:  make([]instrumentResponse, 0, len(listing.ETFs)),
	}
	for _, v := range listing.Teams {
		resp.Teams = append(resp.Teams, toInstrumentResponse(v))
	}
	for _, v := range listing.ETFs {
		resp.ETFs = append(resp.ETFs, toInstrumentResponse(v))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// History handles GET /instruments/{name}/history.
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	name, ok := instrumentParam(w, r)
	if !ok {
		return
	}

	history, err := h.marketSvc.History(r.Context(), name)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := priceHistoryResponse{Instrument: name, History: make([]quoteResponse, 0, len(history))}
	for _, q := range history {
		resp.History = append(resp.History, quoteResponse{
			Price:     domain.FormatMoney(q.Price),
			Tick:      q.Tick,
			Timestamp: formatTime(q.Timestamp),
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Price handles GET /instruments/{name}/price. The optional "at" query
// parameter (RFC 3339) selects the latest price at or before that time.
func (h *MarketHandler) Price(w http.ResponseWriter, r *http.Request) {
	name, ok := instrumentParam(w, r)
	if !ok {
		return
	}

	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "at must be an RFC 3339 timestamp")
			return
		}
		at = parsed
	}

	q, err := h.marketSvc.PriceAt(r.Context(), name, at)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, quoteResponse{
		Instrument: q.Instrument,
		Price:      domain.FormatMoney(q.Price),
		Tick:       q.Tick,
		Timestamp:  formatTime(q.Timestamp),
	})
}

// instrumentParam returns the decoded {name} path parameter. Team names
// contain spaces, so clients send them percent-encoded.
func instrumentParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid instrument name")
		return "", false
	}
	return name, true
}

func toInstrumentResponse(v service.InstrumentView) instrumentResponse {
	typ := "Team"
	if v.Kind == domain.KindComposite {
		typ = "ETF"
	}
	return instrumentResponse{
		Name:      v.Name,
		Type:      typ,
		Price:     domain.FormatMoney(v.Price),
		Tick:      v.Tick,
		UpdatedAt: formatTime(v.UpdatedAt),
		Members:   v.Members,
	}
}
