package handlers

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/findmypet/internal/config"
	"github.com/example/findmypet/internal/models"
	"github.com/example/findmypet/internal/services"
	"github.com/example/findmypet/internal/utils"
)

// AdminHandler manages the admin login and reporting endpoints.
type AdminHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	orders *services.OrderService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, cfg *config.Config, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg, orders: orders}
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the configured admin account and issues a
// 12-hour admin token.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username and password are required")
	}

	if h.cfg.AdminUsername == "" || h.cfg.AdminPassword == "" || h.cfg.AdminJWTSecret == "" {
		return fiber.NewError(fiber.StatusInternalServerError, "admin credentials are not configured")
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminPassword)) == 1
	if !userOK || !passOK {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateAdminToken(h.cfg.AdminJWTSecret, req.Username, 12*time.Hour)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{"success": true, "token": token})
}

// Dashboard returns aggregate metrics: entity counts, total revenue and
// a six month revenue chart.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	var usersCount int64
	if err := h.db.Model(&models.User{}).Count(&usersCount).Error; err != nil {
		return err
	}

	var petsCount int64
	if err := h.db.Model(&models.Pet{}).Count(&petsCount).Error; err != nil {
		return err
	}

	var paidOrdersCount int64
	if err := h.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPaid).
		Count(&paidOrdersCount).Error; err != nil {
		return err
	}

	var totalRevenue int64
	if err := h.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	now := time.Now()
	windowStart := time.Date(now.Year(), now.Month()-5, 1, 0, 0, 0, 0, now.Location())

	type monthRevenue struct {
		Year  int   `json:"year"`
		Month int   `json:"month"`
		Total int64 `json:"total"`
	}

	var rows []monthRevenue
	if err := h.db.Model(&models.Order{}).
		Select("EXTRACT(YEAR FROM created_at)::int AS year, EXTRACT(MONTH FROM created_at)::int AS month, COALESCE(SUM(amount), 0) AS total").
		Where("status = ? AND created_at >= ?", models.OrderStatusPaid, windowStart).
		Group("1, 2").
		Scan(&rows).Error; err != nil {
		return err
	}

	totals := make(map[[2]int]int64, len(rows))
	for _, row := range rows {
		totals[[2]int{row.Year, row.Month}] = row.Total
	}

	type chartPoint struct {
		Label string `json:"label"`
		Total int64  `json:"total"`
	}

	chart := make([]chartPoint, 0, 6)
	for i := 5; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		chart = append(chart, chartPoint{
			Label: month.Format("Jan"),
			Total: totals[[2]int{month.Year(), int(month.Month())}],
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"summary": fiber.Map{
			"users_count":       usersCount,
			"pets_count":        petsCount,
			"paid_orders_count": paidOrdersCount,
			"total_revenue":     totalRevenue,
		},
		"chart": chart,
	})
}

// ListUsers returns all users with per-user pet and paid-order counts.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := c.Query("search"); search != "" {
		query = query.Where(
			"username ILIKE ? OR email ILIKE ? OR mobile ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	type idCount struct {
		UserID uuid.UUID `json:"user_id"`
		Count  int64     `json:"count"`
	}

	var petCounts []idCount
	if err := h.db.Model(&models.Pet{}).
		Select("user_id, count(*) as count").
		Group("user_id").
		Scan(&petCounts).Error; err != nil {
		return err
	}

	var paidCounts []idCount
	if err := h.db.Model(&models.Order{}).
		Select("user_id, count(*) as count").
		Where("status = ?", models.OrderStatusPaid).
		Group("user_id").
		Scan(&paidCounts).Error; err != nil {
		return err
	}

	petCountMap := make(map[uuid.UUID]int64, len(petCounts))
	for _, entry := range petCounts {
		petCountMap[entry.UserID] = entry.Count
	}
	paidCountMap := make(map[uuid.UUID]int64, len(paidCounts))
	for _, entry := range paidCounts {
		paidCountMap[entry.UserID] = entry.Count
	}

	result := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		result = append(result, fiber.Map{
			"id":          u.ID,
			"username":    u.Username,
			"email":       u.Email,
			"mobile":      u.Mobile,
			"whatsapp":    u.Whatsapp,
			"is_verified": u.IsVerified,
			"pet_count":   petCountMap[u.ID],
			"paid_orders": paidCountMap[u.ID],
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   result,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// UserDetails returns a single user with their pets and orders.
func (h *AdminHandler) UserDetails(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	var pets []models.Pet
	if err := h.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&pets).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := h.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":          user.ID,
			"username":    user.Username,
			"email":       user.Email,
			"mobile":      user.Mobile,
			"whatsapp":    user.Whatsapp,
			"is_verified": user.IsVerified,
		},
		"pets":   pets,
		"orders": orders,
	})
}

// BackfillQR regenerates QR codes for paid orders whose pet lacks one.
func (h *AdminHandler) BackfillQR(c *fiber.Ctx) error {
	repaired, err := h.orders.BackfillMissingQR(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"repaired": repaired,
	})
}
