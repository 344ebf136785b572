package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"pricetrack/models"
	"pricetrack/services"

	"github.com/gorilla/mux"
)

type Handlers struct {
	service *services.PriceService
}

func NewHandlers(service *services.PriceService) *Handlers {
	return &Handlers{service: service}
}

// Register mounts the product routes on r
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/products", h.CreateProduct).Methods("POST")
	r.HandleFunc("/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	r.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")
	r.HandleFunc("/products/{id}/check-price", h.CheckPrice).Methods("POST")
	r.HandleFunc("/products/{id}/history", h.GetPriceHistory).Methods("GET")
}

// NewRouter builds the full route table, including the /api alias used by the web UI
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	h.Register(r)
	h.Register(r.PathPrefix("/api").Subrouter())

	return r
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if err := h.service.Ping(r.Context()); err != nil {
		log.Printf("Health check failed: %v", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "pricetrack",
	}
	writeJSON(w, code, response)
}

// CreateProduct registers a product and optionally seeds its first price
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// ListProducts returns every product with its latest price, optionally filtered by ?tag=
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch products")
		return
	}

	// Ensure we always return an array, even if empty
	if products == nil {
		products = []models.ProductSummary{}
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProduct returns one product with its latest price
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "Failed to fetch product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct deletes a product and its price history
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err, "Failed to delete product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// CheckPrice fetches the product page now and records the extracted price
func (h *Handlers) CheckPrice(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.CheckPrice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "Failed to check price")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// GetPriceHistory returns the price history ascending by time
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = l
	}

	history, err := h.service.History(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch price history")
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// writeServiceError maps service errors onto status codes. Unexpected errors
// are logged and answered with the opaque fallback message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var userErr *models.UserError
	hasMessage := errors.As(err, &userErr)

	switch {
	case errors.Is(err, models.ErrValidation):
		message := "Invalid request"
		if hasMessage {
			message = userErr.Message
		}
		writeError(w, http.StatusBadRequest, message)
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, models.ErrExtraction):
		message := "Could not extract price from URL"
		if hasMessage {
			message += ": " + userErr.Message
		}
		writeError(w, http.StatusBadRequest, message)
	default:
		log.Printf("%s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// writeJSON encodes before writing so a value that cannot be encoded turns
// into a 500 instead of a truncated body
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
		buf.Reset()
		buf.WriteString(`{"error":"Internal server error"}` + "\n")
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
