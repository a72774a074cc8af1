package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/findmypet/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Pet{}, &models.Order{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

type sentMail struct {
	To      string
	Subject string
	Text    string
}

type stubMailer struct {
	sent []sentMail
	fail bool
}

func (m *stubMailer) Send(to, subject, text, html string) error {
	if m.fail {
		return fmt.Errorf("smtp down")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Text: text})
	return nil
}

// testMobile returns a unique valid Indian mobile number so seeded
// users never collide on the unique mobile/whatsapp indexes.
func testMobile() string {
	return fmt.Sprintf("9%09d", rand.Intn(1_000_000_000))
}

func seedUser(t *testing.T, db *gorm.DB, verified bool) *models.User {
	t.Helper()

	mobile := testMobile()
	user := models.User{
		Username:   "Asha",
		Email:      fmt.Sprintf("asha-%s@example.com", uuid.NewString()),
		Mobile:     mobile,
		Whatsapp:   mobile,
		IsVerified: verified,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedPet(t *testing.T, db *gorm.DB, user *models.User) *models.Pet {
	t.Helper()

	pet := models.Pet{
		UserID:        user.ID,
		Name:          "Bruno",
		Age:           3,
		OwnerName:     user.Username,
		OwnerEmail:    user.Email,
		OwnerMobile:   user.Mobile,
		OwnerWhatsapp: user.Whatsapp,
	}
	if err := db.Create(&pet).Error; err != nil {
		t.Fatalf("seed pet: %v", err)
	}
	return &pet
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	return resp
}
