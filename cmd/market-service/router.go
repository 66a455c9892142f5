package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/MikeMC777/agromarket/docs"
	"github.com/MikeMC777/agromarket/internal/httpx"
	"github.com/MikeMC777/agromarket/internal/metrics"
	"github.com/MikeMC777/agromarket/internal/workflow"
)

type routerDeps struct {
	Coord   *workflow.Coordinator
	Metrics *metrics.Metrics
	Auth    httpx.Authenticator
	Limiter *httpx.RateLimiter
	Log     *zap.Logger
	// Ready reports backing store health for /healthz; nil means always ready.
	Ready func(ctx context.Context) error
}

func newRouter(d routerDeps) *gin.Engine {
	httpx.SetupValidator()

	r := gin.New()
	r.Use(httpx.RequestID(), httpx.Logger(d.Log), httpx.Recovery(d.Log), httpx.Metrics(d.Metrics))

	r.GET("/healthz", healthHandler(d.Ready))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1", d.Auth.Middleware())
	if d.Limiter != nil {
		api.Use(httpx.RateLimit(d.Limiter))
	}

	api.POST("/cart/add", addToCartHandler(d.Coord))
	api.DELETE("/cart/item", removeFromCartHandler(d.Coord))
	api.GET("/cart/:userId", getCartHandler(d.Coord))

	api.POST("/orders", createOrderHandler(d.Coord))
	api.GET("/orders/awaiting-courier", listAwaitingCourierHandler(d.Coord))
	api.GET("/orders/user/:userId", listOrdersByUserHandler(d.Coord))
	api.GET("/orders/producer/:producerId", listProducerOrdersHandler(d.Coord))
	api.GET("/orders/:id", getOrderHandler(d.Coord))
	api.PUT("/orders/:id/status", updateOrderStatusHandler(d.Coord))
	api.GET("/orders/:id/bids", listOrderBidsHandler(d.Coord))

	api.POST("/bids", submitBidHandler(d.Coord))
	api.GET("/bids/bidder/:bidderId", listBidderBidsHandler(d.Coord))
	api.PUT("/bids/:id/accept", acceptBidHandler(d.Coord))
	api.PUT("/bids/:id/reject", rejectBidHandler(d.Coord))

	api.POST("/mandates", proposeMandateHandler(d.Coord))
	api.GET("/mandates/authorization", mandateAuthorizationHandler(d.Coord))
	api.GET("/mandates/producer/:id", listProducerMandatesHandler(d.Coord))
	api.GET("/mandates/vendeur/:id", listVendeurMandatesHandler(d.Coord))
	api.GET("/mandates/:id", getMandateHandler(d.Coord))
	api.PUT("/mandates/:id/decision", decideMandateHandler(d.Coord))

	return r
}

func healthHandler(ready func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
