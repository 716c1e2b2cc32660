package middlewares

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"ticketbooth/src/lib"
	"ticketbooth/src/types"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit counts requests per caller in fixed windows kept in redis. A nil
// client disables the check and redis errors let the request through.
func RateLimit(rdb *redis.Client, scope string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if rdb == nil || limit <= 0 {
			ctx.Next()
			return
		}
		caller := ctx.ClientIP()
		if principal := GetPrincipal(ctx); principal.Authenticated() {
			caller = principal.UserID.String()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", scope, caller)

		count, err := rdb.Incr(ctx.Request.Context(), key).Result()
		if err != nil {
			log.Printf("[RATELIMIT] Error counting %s: %s\n", key, err.Error())
			ctx.Next()
			return
		}
		if count == 1 {
			if err := rdb.Expire(ctx.Request.Context(), key, window).Err(); err != nil {
				log.Printf("[RATELIMIT] Error setting expiry on %s: %s\n", key, err.Error())
			}
		}
		if count > limit {
			lib.RateLimited.WithLabelValues(scope).Inc()
			ctx.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse("Too many requests, please slow down", nil))
			return
		}
		ctx.Next()
	}
}
