package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Sliding-window limiter as a single Lua script so trim + count + add
// happen atomically.
// KEYS[1]=limiter key, ARGV: now, window start, window seconds, member, limit.
// Returns the count inside the window, or -1 when over the limit.
const luaRateLimit = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)

if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// OTPRateLimit throttles OTP issuance per email (falling back to client
// IP when the body has no email). Redis errors fail open.
func OTPRateLimit(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email string `json:"email"`
		}
		_ = json.Unmarshal(c.Body(), &req)

		key := fmt.Sprintf("rate_limit:otp:ip:%s", c.IP())
		if req.Email != "" {
			key = fmt.Sprintf("rate_limit:otp:email:%s", req.Email)
		}

		now := time.Now().Unix()
		windowSec := int64(window.Seconds())
		windowStart := now - windowSec
		member := fmt.Sprintf("%d-%d", now, time.Now().UnixNano())

		res, err := rdb.Eval(c.Context(), luaRateLimit, []string{key},
			now, windowStart, windowSec, member, limit).Int()
		if err != nil {
			log.Printf("[RateLimit] redis error, allowing request: %v", err)
			return c.Next()
		}

		if res < 0 {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many OTP requests, try again later")
		}

		return c.Next()
	}
}
