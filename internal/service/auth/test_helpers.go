package auth

import "time"

// NewTestJWTService creates a JWT service with an injectable time function,
// for tests that need deterministic token timestamps.
func NewTestJWTService(
	secret string,
	tokenLifetime time.Duration,
	refreshTokenLifetime time.Duration,
	timeFunc func() time.Time,
) JWTService {
	return &hmacJWTService{
		signingKey:           []byte(secret),
		tokenLifetime:        tokenLifetime,
		refreshTokenLifetime: refreshTokenLifetime,
		timeFunc:             timeFunc,
		clockSkew:            0,
	}
}
