// Package otp emite y verifica códigos de un solo uso enviados por email.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dropDatabas3/hellomail/internal/email"
	"github.com/dropDatabas3/hellomail/internal/kv"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
	"github.com/dropDatabas3/hellomail/internal/observability/metrics"
)

// RootPath es el nodo bajo el que viven los challenges.
const RootPath = "otpCodes"

const (
	DefaultTTL         = 5 * time.Minute
	DefaultMaxAttempts = 5
)

// Config parametriza el engine.
type Config struct {
	TTL         time.Duration
	MaxAttempts int
	Brand       string
}

// CodeGenerator devuelve un código de 6 dígitos.
type CodeGenerator func() (string, error)

// Deps contiene las dependencias del engine.
type Deps struct {
	Store  kv.Store
	Sender email.Sender
	Now    func() time.Time // default time.Now
	Codes  CodeGenerator    // default RandomCode
}

// Engine implementa el ciclo de vida de los challenges.
type Engine struct {
	cfg   Config
	store kv.Store
	mail  email.Sender
	now   func() time.Time
	codes CodeGenerator
	locks *keyLocks
}

// NewEngine valida dependencias y aplica defaults.
func NewEngine(cfg Config, d Deps) (*Engine, error) {
	if d.Store == nil || d.Sender == nil {
		return nil, fmt.Errorf("otp: store and sender are required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Codes == nil {
		d.Codes = RandomCode
	}
	return &Engine{
		cfg:   cfg,
		store: d.Store,
		mail:  d.Sender,
		now:   d.Now,
		codes: d.Codes,
		locks: newKeyLocks(),
	}, nil
}

// RandomCode genera un código uniforme en [100000, 999999] con crypto/rand.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (e *Engine) key(address string) (string, error) {
	k := Normalize(address)
	if k == "" || !kv.ValidSegment(k) {
		return "", fmt.Errorf("%w: address", ErrInvalidInput)
	}
	return k, nil
}

// RequestChallenge genera un código nuevo para address, pisa el anterior y lo
// envía. Si el envío falla el challenge queda guardado y se devuelve ErrDispatch.
func (e *Engine) RequestChallenge(ctx context.Context, address string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("otp.RequestChallenge"))

	address = strings.TrimSpace(address)
	key, err := e.key(address)
	if err != nil {
		return err
	}
	log = log.With(logger.Address(key))

	code, err := e.codes()
	if err != nil {
		metrics.RecordOTPRequest("error")
		return fmt.Errorf("otp: generate code: %w", err)
	}
	now := e.now()
	ch := Challenge{
		Code:      code,
		ExpiresAt: now.Add(e.cfg.TTL).UnixMilli(),
		Attempts:  0,
		CreatedAt: now.UnixMilli(),
	}

	unlock := e.locks.lock(key)
	err = e.store.Set(ctx, RootPath+"/"+key, ch)
	unlock()
	if err != nil {
		metrics.RecordOTPRequest("error")
		log.Error("store challenge failed", logger.Err(err))
		return fmt.Errorf("otp: store challenge: %w", err)
	}

	subject, html, text, err := email.RenderOTP(e.cfg.Brand, code, e.cfg.TTL)
	if err != nil {
		metrics.RecordOTPRequest("error")
		return err
	}
	if err := e.mail.Send(ctx, address, subject, html, text); err != nil {
		metrics.RecordOTPRequest("dispatch_error")
		log.Warn("otp dispatch failed, challenge kept", logger.Err(err))
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	metrics.RecordOTPRequest("ok")
	log.Info("otp challenge issued", logger.ExpiresAt(time.UnixMilli(ch.ExpiresAt)))
	return nil
}

// VerifyChallenge valida code contra el challenge vigente de address.
// Orden: inexistente, intentos agotados, vencido, mismatch, éxito.
func (e *Engine) VerifyChallenge(ctx context.Context, address, code string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("otp.VerifyChallenge"))

	key, err := e.key(address)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code", ErrInvalidInput)
	}
	log = log.With(logger.Address(key))
	path := RootPath + "/" + key

	unlock := e.locks.lock(key)
	defer unlock()

	var ch Challenge
	if err := kv.GetJSON(ctx, e.store, path, &ch); err != nil {
		if kv.IsNotFound(err) {
			metrics.RecordOTPVerify("not_found")
			return ErrChallengeNotFound
		}
		metrics.RecordOTPVerify("error")
		return fmt.Errorf("otp: load challenge: %w", err)
	}

	if ch.Attempts >= e.cfg.MaxAttempts {
		metrics.RecordOTPVerify("exhausted")
		return e.discard(ctx, path, ErrAttemptsExhausted)
	}

	if e.now().UnixMilli() > ch.ExpiresAt {
		metrics.RecordOTPVerify("expired")
		return e.discard(ctx, path, ErrExpired)
	}

	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		attempts := ch.Attempts + 1
		if err := e.store.Update(ctx, path, map[string]any{"attempts": attempts}); err != nil {
			metrics.RecordOTPVerify("error")
			return fmt.Errorf("otp: record attempt: %w", err)
		}
		remaining := e.cfg.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		metrics.RecordOTPVerify("mismatch")
		log.Info("otp code mismatch", logger.Attempts(attempts))
		return &MismatchError{Remaining: remaining}
	}

	if err := e.store.Remove(ctx, path); err != nil {
		metrics.RecordOTPVerify("error")
		return fmt.Errorf("otp: consume challenge: %w", err)
	}
	metrics.RecordOTPVerify("ok")
	log.Info("otp verified")
	return nil
}

// discard borra el challenge y devuelve reason (o el error del store).
func (e *Engine) discard(ctx context.Context, path string, reason error) error {
	if err := e.store.Remove(ctx, path); err != nil {
		return errors.Join(reason, fmt.Errorf("otp: remove challenge: %w", err))
	}
	return reason
}
