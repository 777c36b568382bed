package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// Product is a catalog entry. Prices are euro cents.
type Product struct {
	Ref         string `json:"ref"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"imageUrl"`
}

// Catalog returns the sellable products. The storefront catalog is small and
// ships with the binary; inventory management lives in a separate admin
// service.
func Catalog() []Product {
	return []Product{
		{
			Ref:         "wine-feteasca",
			Name:        "Feteasca Neagra 2021",
			Description: "Dry red from the Codru region",
			Price:       1250,
			ImageURL:    "/static/img/feteasca.jpg",
		},
		{
			Ref:         "wine-rara",
			Name:        "Rara Neagra Reserve 2020",
			Description: "Barrel-aged red, limited run",
			Price:       1890,
			ImageURL:    "/static/img/rara.jpg",
		},
		{
			Ref:         "brandy-divin",
			Name:        "Divin XO 10yo",
			Description: "Moldovan grape brandy, 10 years",
			Price:       3400,
			ImageURL:    "/static/img/divin.jpg",
		},
	}
}

// productByRef looks up a catalog product.
func productByRef(ref string) (Product, bool) {
	for _, p := range Catalog() {
		if p.Ref == ref {
			return p, true
		}
	}
	return Product{}, false
}

// ProductHandler serves the product catalog.
type ProductHandler struct {
	logger *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(logger *zap.Logger) *ProductHandler {
	return &ProductHandler{logger: logger}
}

// ServeHTTP handles GET /api/products.
func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "method not allowed", http.StatusMethodNotAllowed, h.logger)
		return
	}
	sendJSON(w, http.StatusOK, Catalog(), h.logger)
}
