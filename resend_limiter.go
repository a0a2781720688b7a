package goMFA

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	errIssueRateLimited        = errors.New("issue rate limited")
	errIssueLimiterUnavailable = errors.New("issue limiter unavailable")
)

type resendLimiter struct {
	redis  *redis.Client
	config ResendConfig
}

func newResendLimiter(redisClient *redis.Client, cfg ResendConfig) *resendLimiter {
	if !cfg.Enabled {
		return nil
	}
	return &resendLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *resendLimiter) CheckIssue(ctx context.Context, tenantID, methodID, ip string) error {
	if l == nil {
		return nil
	}
	if l.config.EnableMethodThrottle {
		if err := l.enforceFixedWindow(ctx, issueMethodKey(tenantID, methodID)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, issueIPKey(tenantID, ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *resendLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errIssueLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", errIssueLimiterUnavailable, err)
		}
	}

	if count > int64(l.config.MaxRequests) {
		return errIssueRateLimited
	}

	return nil
}

func issueMethodKey(tenantID, methodID string) string {
	return "mfi:m:" + normalizeTenantID(tenantID) + ":" + methodID
}

func issueIPKey(tenantID, ip string) string {
	return "mfi:ip:" + normalizeTenantID(tenantID) + ":" + ip
}
