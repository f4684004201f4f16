package utils

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estagioplus/benefits/config"
)

func registrationKey(ip string, day time.Time) string {
	return "reg:succday:" + ip + ":" + day.Format("20060102")
}

// RegistrationAllowed reports whether ip is still under the daily registration cap.
// It fails open when the cap is disabled or Redis is unavailable.
func RegistrationAllowed(ctx context.Context, ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	cli := GetRedis()
	if cli == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := cli.Get(ctx, registrationKey(ip, time.Now())).Int()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		return true
	}
	return n < limit
}

// RecordRegistration counts a successful registration for ip until the end of the day.
func RecordRegistration(ctx context.Context, ip string) {
	cli := GetRedis()
	if cli == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	now := time.Now()
	key := registrationKey(ip, now)
	if err := cli.Incr(ctx, key).Err(); err != nil {
		Sugar.Warnf("registration counter incr failed ip=%s err=%v", ip, err)
		return
	}
	_ = cli.ExpireAt(ctx, key, now.Truncate(24*time.Hour).Add(24*time.Hour)).Err()
}
