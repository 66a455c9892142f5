package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/bid"
	"github.com/MikeMC777/agromarket/internal/cart"
	"github.com/MikeMC777/agromarket/internal/httpx"
	"github.com/MikeMC777/agromarket/internal/idempotency"
	"github.com/MikeMC777/agromarket/internal/mandate"
	"github.com/MikeMC777/agromarket/internal/order"
	"github.com/MikeMC777/agromarket/internal/workflow"
)

type successResponse struct {
	Success bool `json:"success"`
}

func parsePage(c *gin.Context) (order.Page, error) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		return order.Page{}, apperr.InvalidArgument("INVALID_LIMIT", "limit must be a non-negative integer")
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return order.Page{}, apperr.InvalidArgument("INVALID_OFFSET", "offset must be a non-negative integer")
	}
	return order.Page{Limit: limit, Offset: offset}, nil
}

// ===== cart =====

// @Summary Add or update a cart line
// @Tags cart
// @Accept json
// @Produce json
// @Param input body cart.AddRequest true "Line"
// @Success 200 {object} successResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /cart/add [post]
func addToCartHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.AddRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		if err := coord.AddToCart(c.Request.Context(), httpx.CurrentActor(c), req); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

// @Summary Remove a cart line
// @Tags cart
// @Accept json
// @Produce json
// @Param input body cart.RemoveRequest true "Line"
// @Success 200 {object} successResponse
// @Router /cart/item [delete]
func removeFromCartHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.RemoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		if err := coord.RemoveFromCart(c.Request.Context(), httpx.CurrentActor(c), req); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

// @Summary Get a user's cart
// @Tags cart
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} cart.View
// @Router /cart/{userId} [get]
func getCartHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := coord.Cart(c.Request.Context(), httpx.CurrentActor(c), c.Param("userId"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap.View())
	}
}

// ===== orders =====

// @Summary Place an order from the user's cart
// @Tags orders
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Retry key"
// @Param input body order.PlaceOrderRequest true "Order"
// @Success 201 {object} order.PlaceOrderResponse
// @Success 200 {object} order.PlaceOrderResponse "replayed"
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /orders [post]
func createOrderHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		p, err := coord.PlaceOrder(c.Request.Context(), httpx.CurrentActor(c), workflow.PlaceOrder{
			UserID:         req.UserID,
			Expected:       req.Cart,
			Delivery:       req.DeliveryInfo.ToDelivery(),
			PaymentMethod:  req.PaymentMethod,
			IdempotencyKey: strings.TrimSpace(c.GetHeader(idempotency.Header)),
		})
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		status := http.StatusCreated
		if p.Replayed {
			status = http.StatusOK
		}
		c.JSON(status, order.PlaceOrderResponse{OrderID: p.Order.ID, Amount: p.Order.Amount, Status: p.Order.Status})
	}
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} httpx.ErrorResponse
// @Router /orders/{id} [get]
func getOrderHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := coord.Order(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

type orderList struct {
	Items  []order.Order `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func writeOrders(c *gin.Context, p order.Page, items []order.Order, err error) {
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderList{Items: items, Limit: p.Limit, Offset: p.Offset})
}

// @Summary List a user's orders
// @Tags orders
// @Produce json
// @Param userId path string true "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} orderList
// @Failure 403 {object} httpx.ErrorResponse
// @Router /orders/user/{userId} [get]
func listOrdersByUserHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := parsePage(c)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		items, err := coord.OrdersByOwner(c.Request.Context(), httpx.CurrentActor(c), c.Param("userId"), p)
		writeOrders(c, p, items, err)
	}
}

// @Summary List orders open for courier bids
// @Tags orders
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} orderList
// @Router /orders/awaiting-courier [get]
func listAwaitingCourierHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := parsePage(c)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		items, err := coord.OrdersAwaitingCourier(c.Request.Context(), p)
		writeOrders(c, p, items, err)
	}
}

// @Summary List orders containing a producer's products
// @Tags orders
// @Produce json
// @Param producerId path string true "Producer ID"
// @Param status query string false "Status filter"
// @Success 200 {object} orderList
// @Router /orders/producer/{producerId} [get]
func listProducerOrdersHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := parsePage(c)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		items, err := coord.OrdersForProducer(c.Request.Context(), c.Param("producerId"), order.Status(c.Query("status")), p)
		writeOrders(c, p, items, err)
	}
}

// @Summary Move an order to a new status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body order.UpdateStatusRequest true "Target"
// @Success 200 {object} successResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /orders/{id}/status [put]
func updateOrderStatusHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		ch, err := coord.TransitionOrder(c.Request.Context(), httpx.CurrentActor(c), c.Param("id"), req.TargetStatus)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": ch.To})
	}
}

// @Summary List the bids on an order
// @Tags bids
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {array} bid.Bid
// @Router /orders/{id}/bids [get]
func listOrderBidsHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		bids, err := coord.BidsForOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, bids)
	}
}

// ===== bids =====

// @Summary Submit or replace a delivery bid
// @Tags bids
// @Accept json
// @Produce json
// @Param input body bid.SubmitRequest true "Bid"
// @Success 201 {object} map[string]string
// @Failure 422 {object} httpx.ErrorResponse
// @Router /bids [post]
func submitBidHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bid.SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		b, err := coord.SubmitBid(c.Request.Context(), httpx.CurrentActor(c), req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"bidId": b.ID, "status": b.Status})
	}
}

// @Summary List a courier's bids
// @Tags bids
// @Produce json
// @Param bidderId path string true "Bidder ID"
// @Success 200 {array} bid.Bid
// @Router /bids/bidder/{bidderId} [get]
func listBidderBidsHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		bids, err := coord.BidsForBidder(c.Request.Context(), c.Param("bidderId"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, bids)
	}
}

// @Summary Accept a bid and assign the order
// @Tags bids
// @Accept json
// @Produce json
// @Param id path string true "Bid ID"
// @Param input body bid.ActorRequest true "Actor"
// @Success 200 {object} successResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /bids/{id}/accept [put]
func acceptBidHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bid.ActorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		res, err := coord.AcceptBid(c.Request.Context(), httpx.CurrentActor(c), c.Param("id"), req.ActorID)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"orderId":     res.Order.ID,
			"courierId":   res.Order.CourierID,
			"deliveryFee": res.Order.DeliveryFee,
		})
	}
}

// @Summary Reject a waiting bid
// @Tags bids
// @Accept json
// @Produce json
// @Param id path string true "Bid ID"
// @Param input body bid.ActorRequest true "Actor"
// @Success 200 {object} successResponse
// @Router /bids/{id}/reject [put]
func rejectBidHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bid.ActorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		if _, err := coord.RejectBid(c.Request.Context(), httpx.CurrentActor(c), c.Param("id"), req.ActorID); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

// ===== mandates =====

// @Summary Propose a resale mandate
// @Tags mandates
// @Accept json
// @Produce json
// @Param input body mandate.ProposeRequest true "Mandate"
// @Success 201 {object} map[string]string
// @Failure 400 {object} httpx.ErrorResponse
// @Router /mandates [post]
func proposeMandateHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req mandate.ProposeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		m, err := coord.ProposeMandate(c.Request.Context(), httpx.CurrentActor(c), req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"mandateId": m.ID, "status": m.Status})
	}
}

// @Summary Accept or refuse a mandate
// @Tags mandates
// @Accept json
// @Produce json
// @Param id path string true "Mandate ID"
// @Param input body mandate.DecisionRequest true "Decision"
// @Success 200 {object} successResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /mandates/{id}/decision [put]
func decideMandateHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req mandate.DecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		m, err := coord.DecideMandate(c.Request.Context(), httpx.CurrentActor(c), c.Param("id"), req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": m.Status})
	}
}

// @Summary Get mandate by id
// @Tags mandates
// @Produce json
// @Param id path string true "Mandate ID"
// @Success 200 {object} mandate.Mandate
// @Router /mandates/{id} [get]
func getMandateHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := coord.Mandate(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// @Summary List mandates addressed to a producer
// @Tags mandates
// @Produce json
// @Param id path string true "Producteur ID"
// @Success 200 {array} mandate.Mandate
// @Router /mandates/producer/{id} [get]
func listProducerMandatesHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := coord.MandatesForProducer(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary List a vendeur's mandates
// @Tags mandates
// @Produce json
// @Param id path string true "Vendeur ID"
// @Param status query string false "waiting, accepted or refused"
// @Success 200 {array} mandate.Mandate
// @Router /mandates/vendeur/{id} [get]
func listVendeurMandatesHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := coord.MandatesForVendeur(c.Request.Context(), c.Param("id"), mandate.Status(c.Query("status")))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary Find the accepted mandate letting a vendeur resell a product
// @Tags mandates
// @Produce json
// @Param vendeurId query string true "Vendeur ID"
// @Param productId query string true "Product ID"
// @Success 200 {object} mandate.Mandate
// @Failure 404 {object} httpx.ErrorResponse
// @Router /mandates/authorization [get]
func mandateAuthorizationHandler(coord *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendeurID, productID := c.Query("vendeurId"), c.Query("productId")
		if vendeurID == "" || productID == "" {
			httpx.WriteError(c, apperr.InvalidArgument("QUERY_REQUIRED", "vendeurId and productId are required"))
			return
		}
		m, err := coord.MandateAuthorization(c.Request.Context(), vendeurID, productID)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}
