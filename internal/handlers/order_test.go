package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/findmypet/internal/config"
	"github.com/example/findmypet/internal/middleware"
	"github.com/example/findmypet/internal/models"
	"github.com/example/findmypet/internal/services"
	"github.com/example/findmypet/internal/utils"
)

const testGatewaySecret = "handler_test_secret"

type stubGateway struct {
	calls int
	fail  bool
}

func (g *stubGateway) StageOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*services.GatewayOrder, error) {
	g.calls++
	if g.fail {
		return nil, fmt.Errorf("gateway unavailable")
	}
	return &services.GatewayOrder{
		ID:       fmt.Sprintf("order_stub%d", g.calls),
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

type silentMessenger struct{}

func (silentMessenger) Send(to, message string) error { return nil }

func newOrderApp(db *gorm.DB, gateway *stubGateway, mailer *stubMailer) (*fiber.App, *config.Config) {
	cfg := &config.Config{
		JWTSecret:    "test-jwt-secret",
		TokenExpires: time.Hour,
	}

	orders := services.NewOrderService(db, gateway, mailer, silentMessenger{}, testGatewaySecret, "https://findmypet.in")
	handler := NewOrderHandler(orders)

	app := fiber.New()
	group := app.Group("/api/order", middleware.AuthMiddleware(cfg))
	group.Post("/create", handler.CreateOrder)
	group.Get("/my-orders", handler.MyOrders)
	group.Post("/verify-payment", handler.VerifyPayment)
	return app, cfg
}

func bearerToken(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(cfg.JWTSecret, user.ID, cfg.TokenExpires)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	t.Run("Given an authenticated owner Then the staged gateway order is returned", func(t *testing.T) {
		db := newTestDB(t)
		user := seedUser(t, db, true)
		pet := seedPet(t, db, user)
		app, cfg := newOrderApp(db, &stubGateway{}, &stubMailer{})

		req := jsonRequest(t, http.MethodPost, "/api/order/create", fiber.Map{
			"pet_id": pet.ID.String(),
			"type":   models.OrderTypeQROnly,
		})
		req.Header.Set("Authorization", bearerToken(t, cfg, user))

		resp := doRequest(t, app, req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		body := decodeBody(t, resp)
		gatewayOrder, ok := body["gateway_order"].(map[string]any)
		if !ok || gatewayOrder["id"] == "" {
			t.Fatalf("expected a gateway order in the response, got %v", body)
		}
		if amount, _ := gatewayOrder["amount"].(float64); amount != 5000 {
			t.Errorf("expected gateway amount 5000 paise, got %v", gatewayOrder["amount"])
		}
	})

	t.Run("Given no token Then the request is unauthorized", func(t *testing.T) {
		db := newTestDB(t)
		app, _ := newOrderApp(db, &stubGateway{}, &stubMailer{})

		resp := doRequest(t, app, jsonRequest(t, http.MethodPost, "/api/order/create", fiber.Map{
			"pet_id": "9f0c2a4e-1b2d-4c3e-8f5a-6d7e8f9a0b1c",
			"type":   models.OrderTypeQROnly,
		}))
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Given a pet owned by someone else Then creation reports not found", func(t *testing.T) {
		db := newTestDB(t)
		user := seedUser(t, db, true)
		other := seedUser(t, db, true)
		otherPet := seedPet(t, db, other)
		app, cfg := newOrderApp(db, &stubGateway{}, &stubMailer{})

		req := jsonRequest(t, http.MethodPost, "/api/order/create", fiber.Map{
			"pet_id": otherPet.ID.String(),
			"type":   models.OrderTypeQROnly,
		})
		req.Header.Set("Authorization", bearerToken(t, cfg, user))

		resp := doRequest(t, app, req)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Given a gateway outage Then the handler reports a bad gateway", func(t *testing.T) {
		db := newTestDB(t)
		user := seedUser(t, db, true)
		pet := seedPet(t, db, user)
		app, cfg := newOrderApp(db, &stubGateway{fail: true}, &stubMailer{})

		req := jsonRequest(t, http.MethodPost, "/api/order/create", fiber.Map{
			"pet_id": pet.ID.String(),
			"type":   models.OrderTypeQROnly,
		})
		req.Header.Set("Authorization", bearerToken(t, cfg, user))

		resp := doRequest(t, app, req)
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", resp.StatusCode)
		}
	})
}

func TestOrderHandler_VerifyPayment(t *testing.T) {
	stageOrder := func(t *testing.T, db *gorm.DB, gateway *stubGateway, user *models.User, pet *models.Pet) *models.Order {
		t.Helper()
		orders := services.NewOrderService(db, gateway, &stubMailer{}, silentMessenger{}, testGatewaySecret, "https://findmypet.in")
		order, _, err := orders.CreateOrder(context.Background(), services.CreateOrderCommand{
			UserID: user.ID,
			PetID:  pet.ID,
			Type:   models.OrderTypeQROnly,
		})
		if err != nil {
			t.Fatalf("stage order: %v", err)
		}
		return order
	}

	t.Run("Given a valid confirmation Then the fulfillment outcomes are reported", func(t *testing.T) {
		db := newTestDB(t)
		user := seedUser(t, db, true)
		pet := seedPet(t, db, user)
		gateway := &stubGateway{}
		order := stageOrder(t, db, gateway, user, pet)
		app, cfg := newOrderApp(db, gateway, &stubMailer{})

		paymentID := "pay_http1"
		req := jsonRequest(t, http.MethodPost, "/api/order/verify-payment", fiber.Map{
			"order_id":           order.ID.String(),
			"gateway_order_id":   order.GatewayOrderID,
			"gateway_payment_id": paymentID,
			"signature":          services.ComputeSignature(order.GatewayOrderID, paymentID, testGatewaySecret),
		})
		req.Header.Set("Authorization", bearerToken(t, cfg, user))

		resp := doRequest(t, app, req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		body := decodeBody(t, resp)
		if body["already_paid"] != false {
			t.Errorf("first verify must not report already_paid, got %v", body["already_paid"])
		}
		fulfillment, ok := body["fulfillment"].(map[string]any)
		if !ok {
			t.Fatalf("expected a fulfillment object, got %v", body)
		}
		if fulfillment["qr"] != string(services.TaskSucceeded) {
			t.Errorf("expected qr task succeeded, got %v", fulfillment["qr"])
		}
		if fulfillment["notification"] != string(services.TaskSucceeded) {
			t.Errorf("expected notification task succeeded, got %v", fulfillment["notification"])
		}
	})

	t.Run("Given a tampered signature Then the confirmation is rejected", func(t *testing.T) {
		db := newTestDB(t)
		user := seedUser(t, db, true)
		pet := seedPet(t, db, user)
		gateway := &stubGateway{}
		order := stageOrder(t, db, gateway, user, pet)
		app, cfg := newOrderApp(db, gateway, &stubMailer{})

		req := jsonRequest(t, http.MethodPost, "/api/order/verify-payment", fiber.Map{
			"order_id":           order.ID.String(),
			"gateway_order_id":   order.GatewayOrderID,
			"gateway_payment_id": "pay_http2",
			"signature":          "deadbeef",
		})
		req.Header.Set("Authorization", bearerToken(t, cfg, user))

		resp := doRequest(t, app, req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}

		var stored models.Order
		db.First(&stored, "id = ?", order.ID)
		if stored.Status != models.OrderStatusCreated {
			t.Errorf("order must stay CREATED after a rejected confirmation, got %s", stored.Status)
		}
	})

	t.Run("Given another user's order Then the confirmation reports not found", func(t *testing.T) {
		db := newTestDB(t)
		owner := seedUser(t, db, true)
		pet := seedPet(t, db, owner)
		intruder := seedUser(t, db, true)
		gateway := &stubGateway{}
		order := stageOrder(t, db, gateway, owner, pet)
		app, cfg := newOrderApp(db, gateway, &stubMailer{})

		paymentID := "pay_http3"
		req := jsonRequest(t, http.MethodPost, "/api/order/verify-payment", fiber.Map{
			"order_id":           order.ID.String(),
			"gateway_order_id":   order.GatewayOrderID,
			"gateway_payment_id": paymentID,
			"signature":          services.ComputeSignature(order.GatewayOrderID, paymentID, testGatewaySecret),
		})
		req.Header.Set("Authorization", bearerToken(t, cfg, intruder))

		resp := doRequest(t, app, req)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestOrderHandler_MyOrders(t *testing.T) {
	t.Run("Given an owner with an order Then the list carries the owner snapshot", func(t *testing.T) {
		db := newTestDB(t)
		user := seedUser(t, db, true)
		pet := seedPet(t, db, user)
		gateway := &stubGateway{}
		app, cfg := newOrderApp(db, gateway, &stubMailer{})

		createReq := jsonRequest(t, http.MethodPost, "/api/order/create", fiber.Map{
			"pet_id": pet.ID.String(),
			"type":   models.OrderTypeQROnly,
		})
		createReq.Header.Set("Authorization", bearerToken(t, cfg, user))
		doRequest(t, app, createReq)

		listReq := jsonRequest(t, http.MethodGet, "/api/order/my-orders", nil)
		listReq.Header.Set("Authorization", bearerToken(t, cfg, user))

		resp := doRequest(t, app, listReq)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		body := decodeBody(t, resp)
		owner, ok := body["owner"].(map[string]any)
		if !ok || owner["email"] != user.Email {
			t.Errorf("expected owner snapshot for %s, got %v", user.Email, body["owner"])
		}
		orders, ok := body["orders"].([]any)
		if !ok || len(orders) != 1 {
			t.Errorf("expected one order in the list, got %v", body["orders"])
		}
	})
}
