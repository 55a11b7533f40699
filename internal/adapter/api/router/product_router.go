package router

import (
	"github.com/labstack/echo/v4"

	"emprende/internal/adapter/api/handler"
	"emprende/internal/adapter/api/middleware"
)

func SetupProductRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	productHandler := handler.GetProductHandler()

	products := e.Group("/v1/products")
	products.GET("", productHandler.ListProducts)
	products.GET("/categories", productHandler.ListCategories)
	products.GET("/:id", productHandler.GetProduct)
	products.POST("", productHandler.CreateProduct, authMiddleware.Authenticate)

	myProducts := e.Group("/v1/my-products")
	myProducts.Use(authMiddleware.Authenticate)
	myProducts.GET("", productHandler.ListMyProducts)
}
