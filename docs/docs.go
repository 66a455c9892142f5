// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/cart/add": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Add a product to the caller's cart",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cart.AddRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/cart/item": {
            "delete": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Remove a line from the caller's cart",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cart.RemoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/cart/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Show a user's cart",
                "parameters": [
                    {"type": "string", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.View"}}
                }
            }
        },
        "/orders": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Place an order from the caller's cart",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.PlaceOrderRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/order.PlaceOrderResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/order.PlaceOrderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/orders/awaiting-courier": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List orders open for courier bids",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/orders/user/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List a buyer's orders",
                "parameters": [{"type": "string", "name": "userId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/orders/producer/{producerId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List orders containing a producer's products",
                "parameters": [
                    {"type": "string", "name": "producerId", "in": "path", "required": true},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get an order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/orders/{id}/status": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Move an order to a new status",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/orders/{id}/bids": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bids"],
                "summary": "List the bids on an order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/bids": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bids"],
                "summary": "Submit or revise a delivery bid",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/bid.SubmitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/bids/bidder/{bidderId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bids"],
                "summary": "List a bidder's bids",
                "parameters": [{"type": "string", "name": "bidderId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/bids/{id}/accept": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bids"],
                "summary": "Accept a bid and assign the courier",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/bid.ActorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/bids/{id}/reject": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bids"],
                "summary": "Reject a bid",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/bid.ActorRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/mandates": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["mandates"],
                "summary": "Propose a sales mandate to a producer",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/mandate.ProposeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/mandates/authorization": {
            "get": {
                "produces": ["application/json"],
                "tags": ["mandates"],
                "summary": "Look up the accepted mandate for a vendeur and product",
                "parameters": [
                    {"type": "string", "name": "vendeurId", "in": "query", "required": true},
                    {"type": "string", "name": "productId", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/mandates/producer/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["mandates"],
                "summary": "List mandates addressed to a producer",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/mandates/vendeur/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["mandates"],
                "summary": "List mandates proposed by a vendeur",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/mandates/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["mandates"],
                "summary": "Get a mandate",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/mandates/{id}/decision": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["mandates"],
                "summary": "Accept or refuse a pending mandate",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/mandate.DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "cart.AddRequest": {
            "type": "object",
            "required": ["userId", "productId", "size"],
            "properties": {
                "userId": {"type": "string"},
                "productId": {"type": "string", "example": "tomato"},
                "size": {"type": "string", "example": "1kg"},
                "quantity": {"type": "integer", "example": 2}
            }
        },
        "cart.RemoveRequest": {
            "type": "object",
            "required": ["userId", "productId", "size"],
            "properties": {
                "userId": {"type": "string"},
                "productId": {"type": "string"},
                "size": {"type": "string"}
            }
        },
        "cart.Line": {
            "type": "object",
            "required": ["productId", "size"],
            "properties": {
                "productId": {"type": "string"},
                "size": {"type": "string"},
                "quantity": {"type": "integer"}
            }
        },
        "cart.View": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/cart.Line"}}
            }
        },
        "order.DeliveryInfo": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["self_pickup", "pickup_center", "awaiting_courier", "platform_delivery"]},
                "address": {"type": "string"},
                "pickupCenter": {"type": "string"},
                "numeroPhone": {"type": "string"}
            }
        },
        "order.PlaceOrderRequest": {
            "type": "object",
            "required": ["userId", "deliveryInfo", "paymentMethod"],
            "properties": {
                "userId": {"type": "string"},
                "cart": {"type": "array", "items": {"$ref": "#/definitions/cart.Line"}},
                "deliveryInfo": {"$ref": "#/definitions/order.DeliveryInfo"},
                "paymentMethod": {"type": "string", "example": "cash_on_delivery"}
            }
        },
        "order.PlaceOrderResponse": {
            "type": "object",
            "properties": {
                "orderId": {"type": "string"},
                "amount": {"type": "string", "example": "20"},
                "status": {"type": "string", "example": "placed"}
            }
        },
        "order.UpdateStatusRequest": {
            "type": "object",
            "required": ["targetStatus"],
            "properties": {
                "targetStatus": {"type": "string", "enum": ["placed", "confirmed_prepared", "assigned_for_delivery", "in_transit", "delivered", "delivery_failed", "cancelled"]}
            }
        },
        "order.Item": {
            "type": "object",
            "properties": {
                "productId": {"type": "string"},
                "productName": {"type": "string"},
                "producerId": {"type": "string"},
                "unitPrice": {"type": "string"},
                "size": {"type": "string"},
                "quantity": {"type": "integer"},
                "subtotal": {"type": "string"}
            }
        },
        "order.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "ownerId": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.Item"}},
                "amount": {"type": "string"},
                "amount_livraison": {"type": "string"},
                "deliveryInfo": {"$ref": "#/definitions/order.DeliveryInfo"},
                "paymentMethod": {"type": "string"},
                "status": {"type": "string"},
                "courierId": {"type": "string"},
                "version": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "bid.SubmitRequest": {
            "type": "object",
            "required": ["orderId", "bidderId"],
            "properties": {
                "orderId": {"type": "string"},
                "bidderId": {"type": "string"},
                "price": {"type": "string", "example": "7.50"}
            }
        },
        "bid.ActorRequest": {
            "type": "object",
            "required": ["actorId"],
            "properties": {
                "actorId": {"type": "string"}
            }
        },
        "mandate.ProposeRequest": {
            "type": "object",
            "required": ["vendeurId", "producteurId", "productId"],
            "properties": {
                "vendeurId": {"type": "string"},
                "producteurId": {"type": "string"},
                "productId": {"type": "string"},
                "percentage": {"type": "string", "example": "20"},
                "description": {"type": "string"}
            }
        },
        "mandate.DecisionRequest": {
            "type": "object",
            "required": ["producteurId", "decision"],
            "properties": {
                "producteurId": {"type": "string"},
                "decision": {"type": "string", "enum": ["accepted", "refused"]}
            }
        },
        "httpx.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "kind": {"type": "string"},
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "fields": {"type": "array", "items": {"type": "object"}}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Agromarket API",
	Description:      "Cart, orders, delivery bids and sales mandates for the agricultural marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
