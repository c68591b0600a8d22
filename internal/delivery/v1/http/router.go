package http

import (
	"net/http"
	"time"

	_ "github.com/DRSN-tech/minimarket/docs" // Импорт описания API для swagger
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(catalogUC usecase.CatalogUC, cartUC usecase.CartUC, saleUC usecase.SaleUC) {
	r.router.Use(middleware.RequestID, middleware.RealIP, r.accessLog, middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerProductRoutes(v1, NewProductHandler(catalogUC, r.logger))
		registerCartRoutes(v1, NewCartHandler(cartUC, r.logger))
		registerSaleRoutes(v1, NewSaleHandler(saleUC, r.logger))
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.registerProduct)
		pr.Get("/low-stock", prHandler.lowStock)
		pr.Post("/refresh", prHandler.refreshCatalog)
		pr.Get("/{id}", prHandler.getProduct)
	})
}

func registerCartRoutes(router chi.Router, cartHandler *CartHandler) {
	router.Route("/carts", func(cr chi.Router) {
		cr.Post("/", cartHandler.createCart)
		cr.Route("/{id}", func(cart chi.Router) {
			cart.Get("/", cartHandler.getCart)
			cart.Delete("/", cartHandler.deleteCart)
			cart.Post("/items", cartHandler.addItem)
			cart.Put("/items/{productID}", cartHandler.setQuantity)
			cart.Delete("/items/{productID}", cartHandler.removeItem)
			cart.Post("/clear", cartHandler.clearCart)
			cart.Post("/checkout", cartHandler.checkout)
		})
	})
}

func registerSaleRoutes(router chi.Router, saleHandler *SaleHandler) {
	router.Route("/sales", func(sr chi.Router) {
		sr.Get("/", saleHandler.listSales)
		sr.Get("/summary", saleHandler.summary)
		sr.Post("/archive", saleHandler.archiveDay)
		sr.Get("/{id}", saleHandler.getSale)
	})
}

func (r *Router) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, req)

		r.logger.Debugf("%s %s %d %s request_id=%s",
			req.Method, req.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(req.Context()))
	})
}
