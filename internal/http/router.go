package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", handler.ListProducts)
		r.Post("/products", handler.CreateProduct)
		r.Get("/products/{id}", handler.GetProduct)
		r.Patch("/products/{id}", handler.PatchProduct)
		r.Get("/products/{id}/kardex", handler.ProductKardex)
		r.Get("/products/{id}/stock", handler.ProductStock)

		r.Get("/customers", handler.ListCustomers)
		r.Post("/customers", handler.CreateCustomer)
		r.Get("/customers/debtors", handler.Debtors)
		r.Get("/customers/{id}", handler.GetCustomer)
		r.Patch("/customers/{id}", handler.PatchCustomer)
		r.Get("/customers/{id}/balance", handler.CustomerBalance)

		r.Post("/stock/replenish", handler.Replenish)
		r.Post("/stock/adjust", handler.Adjust)
		r.Get("/stock/movements", handler.ListStockMovements)

		r.Post("/sales", handler.CreateSale)
		r.Get("/sales", handler.ListSales)
		r.Get("/sales/{id}", handler.GetSale)

		r.Post("/cash/movements", handler.CreateCashMovement)
		r.Get("/cash/movements", handler.ListCashMovements)
	})

	return r
}
