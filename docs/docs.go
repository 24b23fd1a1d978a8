// Package docs registers the storefront OpenAPI document with swag.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/products": {
            "get": {
                "description": "With q, products whose label contains q. Otherwise products still in stock.",
                "produces": ["application/json"],
                "summary": "List products",
                "parameters": [
                    {"type": "string", "description": "Search term", "name": "q", "in": "query"},
                    {"type": "integer", "description": "Maximum number of in-stock products", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/catalog.Product"}}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get product",
                "parameters": [{"type": "integer", "description": "Product ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.Product"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/products/slug/{slug}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get product by slug",
                "parameters": [{"type": "string", "description": "Product slug", "name": "slug", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.ProductDetail"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/cart": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get cart",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.CartResponse"}}}
            },
            "delete": {
                "summary": "Clear cart",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/cart/items": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Add cart item",
                "parameters": [{"description": "Item", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.AddItemRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.CartResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/cart/items/{productID}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update cart item quantity",
                "parameters": [
                    {"type": "integer", "description": "Product ID", "name": "productID", "in": "path", "required": true},
                    {"description": "Quantity", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.UpdateItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.CartResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "summary": "Remove cart item",
                "parameters": [{"type": "integer", "description": "Product ID", "name": "productID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.CartResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/cart/shipping": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Set shipping details",
                "parameters": [{"description": "Shipping details", "name": "shipping", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cart.Shipping"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.CartResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/checkout": {
            "post": {
                "description": "Places the session cart as an order. Input problems return 4xx; a 503 can be retried.",
                "produces": ["application/json"],
                "summary": "Checkout",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.CheckoutResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/admin/orders": {
            "get": {
                "produces": ["application/json"],
                "summary": "List orders",
                "parameters": [{"type": "string", "description": "Substring of the customer's first or last name", "name": "name", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}}}
                }
            }
        },
        "/admin/orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get order",
                "parameters": [{"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}/status": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update order status",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "status", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.AddItemRequest": {
            "type": "object",
            "properties": {"product_id": {"type": "integer"}, "quantity": {"type": "integer"}}
        },
        "api.UpdateItemRequest": {
            "type": "object",
            "properties": {"quantity": {"type": "integer"}}
        },
        "api.UpdateStatusRequest": {
            "type": "object",
            "properties": {"status": {"type": "string", "enum": ["placed", "shipped", "delivered"]}}
        },
        "api.CheckoutResponse": {
            "type": "object",
            "properties": {"order_id": {"type": "string"}}
        },
        "api.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}, "details": {}}
        },
        "api.LineResponse": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "label": {"type": "string"},
                "unit_price": {"type": "string"},
                "quantity": {"type": "integer"},
                "total": {"type": "string"}
            }
        },
        "api.CartResponse": {
            "type": "object",
            "properties": {
                "lines": {"type": "array", "items": {"$ref": "#/definitions/api.LineResponse"}},
                "shipping": {"$ref": "#/definitions/cart.Shipping"},
                "status": {"type": "string", "enum": ["draft", "placed"]},
                "item_count": {"type": "integer"},
                "total": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "api.ProductDetail": {
            "type": "object",
            "properties": {
                "product": {"$ref": "#/definitions/catalog.Product"},
                "related": {"type": "array", "items": {"$ref": "#/definitions/catalog.Product"}}
            }
        },
        "cart.Shipping": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "country": {"type": "string"},
                "state": {"type": "string"},
                "city": {"type": "string"},
                "postal_code": {"type": "string"},
                "payment_method": {"type": "string", "enum": ["paypal", "payoneer", "check_payment", "bank_transfer", "cash_on_delivery"]}
            }
        },
        "catalog.Category": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "slug": {"type": "string"}, "label": {"type": "string"}}
        },
        "catalog.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "slug": {"type": "string"},
                "label": {"type": "string"},
                "description": {"type": "string"},
                "unit_price": {"type": "string"},
                "quantity": {"type": "integer"},
                "categories": {"type": "array", "items": {"$ref": "#/definitions/catalog.Category"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "order.Line": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "label": {"type": "string"},
                "quantity": {"type": "integer"},
                "unit_price": {"type": "string"}
            }
        },
        "order.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "customer": {"$ref": "#/definitions/cart.Shipping"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/order.Line"}},
                "total": {"type": "string"},
                "status": {"type": "string", "enum": ["placed", "shipped", "delivered"]},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8443",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Catalog, session cart, checkout and order administration",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
