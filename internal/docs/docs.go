// Package docs registers the operator API swagger document with swag.
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
        "/tokens": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tokens"],
                "summary": "Recent token launches",
                "parameters": [
                    {"type": "string", "description": "devnet or mainnet", "name": "network", "in": "query"},
                    {"type": "integer", "description": "Maximum records (default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TokensResponse"}}
                }
            }
        },
        "/wallets/{network}": {
            "get": {
                "description": "Lists the five wallets of a network with their last known balances",
                "produces": ["application/json"],
                "tags": ["wallets"],
                "summary": "List managed wallets",
                "parameters": [
                    {"type": "string", "description": "devnet or mainnet", "name": "network", "in": "path", "required": true},
                    {"type": "boolean", "description": "Query the ledger before answering", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.WalletsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallets/{network}/distribute": {
            "post": {
                "description": "Splits wallet 1 balance above the reserve equally across wallets 2-5",
                "produces": ["application/json"],
                "tags": ["wallets"],
                "summary": "Seed wallets 2-5",
                "parameters": [
                    {"type": "string", "description": "devnet or mainnet", "name": "network", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.DistributionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallets/{network}/{id}/airdrop": {
            "post": {
                "description": "Asks the devnet faucet to fund one wallet",
                "produces": ["application/json"],
                "tags": ["wallets"],
                "summary": "Request devnet SOL",
                "parameters": [
                    {"type": "string", "description": "devnet", "name": "network", "in": "path", "required": true},
                    {"type": "integer", "description": "Wallet id (1-5)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AirdropResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallets/{network}/{id}/qr": {
            "get": {
                "produces": ["image/png"],
                "tags": ["wallets"],
                "summary": "Wallet address QR code",
                "parameters": [
                    {"type": "string", "description": "devnet or mainnet", "name": "network", "in": "path", "required": true},
                    {"type": "integer", "description": "Wallet id (1-5)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.AirdropResponse": {
            "type": "object",
            "properties": {"txId": {"type": "string"}}
        },
        "model.DistributionResponse": {
            "type": "object",
            "properties": {
                "network": {"type": "string"},
                "reserveSol": {"type": "string"},
                "amountPerWalletSol": {"type": "string"},
                "totalDistributedSol": {"type": "string"},
                "successfulTransfers": {"type": "integer"},
                "finalWallet1Sol": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/model.TransferResultEntry"}}
            }
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "code": {"type": "string"}}
        },
        "model.TokensResponse": {
            "type": "object",
            "properties": {"tokens": {"type": "array", "items": {"type": "object"}}}
        },
        "model.TransferResultEntry": {
            "type": "object",
            "properties": {
                "walletId": {"type": "integer"},
                "success": {"type": "boolean"},
                "unconfirmed": {"type": "boolean"},
                "amountSol": {"type": "string"},
                "newBalanceSol": {"type": "string"},
                "signature": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "model.WalletResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "address": {"type": "string"},
                "sol": {"type": "string"},
                "balanceKnown": {"type": "boolean"},
                "refreshError": {"type": "string"},
                "explorer": {"type": "string"}
            }
        },
        "model.WalletsResponse": {
            "type": "object",
            "properties": {
                "network": {"type": "string"},
                "configured": {"type": "boolean"},
                "totalSol": {"type": "string"},
                "wallets": {"type": "array", "items": {"$ref": "#/definitions/model.WalletResponse"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Launchpad operator API",
	Description:      "Wallet fleet and token launch records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
