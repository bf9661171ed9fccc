package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"publication-system/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type OTPPurpose string

const (
	OTPVerification OTPPurpose = "verification"
	OTPReset        OTPPurpose = "reset"
)

const (
	otpKeyPrefix   = "publication:otp"
	otpLength      = 6
	otpMaxAttempts = 3
	otpTxRetries   = 5
)

// OTPStore issues one-time codes per (email, purpose). Issuing again
// replaces the previous code.
type OTPStore interface {
	Issue(ctx context.Context, email string, purpose OTPPurpose) (string, error)
	Verify(ctx context.Context, email string, purpose OTPPurpose, code string) error
}

type otpRecord struct {
	CodeHash string `json:"codeHash"`
	Attempts int    `json:"attempts"`
}

type redisOTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPStore(client *redis.Client, ttl time.Duration) OTPStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisOTPStore{client: client, ttl: ttl}
}

func (s *redisOTPStore) Issue(ctx context.Context, email string, purpose OTPPurpose) (string, error) {
	code, err := generateNumericCode(otpLength)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	raw, err := json.Marshal(otpRecord{CodeHash: string(hash)})
	if err != nil {
		return "", fmt.Errorf("marshal otp: %w", err)
	}
	if err := s.client.Set(ctx, s.key(email, purpose), raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify consumes the code on success. After otpMaxAttempts wrong codes the
// code is locked until it expires or a new one is issued. The check and the
// attempt counter update run in one optimistic transaction on the key.
func (s *redisOTPStore) Verify(ctx context.Context, email string, purpose OTPPurpose, code string) error {
	key := s.key(email, purpose)
	for i := 0; i < otpTxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			return s.verifyTx(ctx, tx, key, strings.TrimSpace(code))
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("verify otp: %w", redis.TxFailedErr)
}

func (s *redisOTPStore) verifyTx(ctx context.Context, tx *redis.Tx, key, code string) error {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ErrorValidation{Message: "OTP expired or not found"}
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}

	var record otpRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("unmarshal otp: %w", err)
	}
	if record.Attempts >= otpMaxAttempts {
		return models.ErrorValidation{Message: "Too many failed attempts"}
	}

	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		record.Attempts++
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal otp: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, raw, redis.SetArgs{KeepTTL: true, Mode: "XX"})
			return nil
		})
		if errors.Is(err, redis.Nil) {
			return models.ErrorValidation{Message: "OTP expired or not found"}
		}
		if err != nil {
			return err
		}
		return models.ErrorValidation{Message: "Invalid OTP"}
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

func (s *redisOTPStore) key(email string, purpose OTPPurpose) string {
	return fmt.Sprintf("%s:%s:%s", otpKeyPrefix, purpose, normalizeEmail(email))
}

func generateNumericCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
