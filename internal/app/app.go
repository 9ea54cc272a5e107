// Package app arma el servicio completo a partir de la configuración:
// store, engine OTP, manager Gmail, rate limits, métricas y router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/dropDatabas3/hellomail/internal/config"
	"github.com/dropDatabas3/hellomail/internal/email"
	"github.com/dropDatabas3/hellomail/internal/gmail"
	"github.com/dropDatabas3/hellomail/internal/history"
	gmailctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/gmail"
	healthctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/health"
	historyctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/history"
	otpctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/otp"
	tplctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/templates"
	mw "github.com/dropDatabas3/hellomail/internal/http/middlewares"
	"github.com/dropDatabas3/hellomail/internal/http/router"
	healthsvc "github.com/dropDatabas3/hellomail/internal/http/services/health"
	"github.com/dropDatabas3/hellomail/internal/infra/storefactory"
	"github.com/dropDatabas3/hellomail/internal/oauth/google"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
	"github.com/dropDatabas3/hellomail/internal/observability/metrics"
	"github.com/dropDatabas3/hellomail/internal/otp"
	"github.com/dropDatabas3/hellomail/internal/rate"
	"github.com/dropDatabas3/hellomail/internal/templates"
)

// Overrides reemplaza colaboradores externos (tests, CLI). Los nil se construyen
// desde la configuración.
type Overrides struct {
	Sender   email.Sender
	Provider gmail.Provider
	Registry prometheus.Registerer
	Now      func() time.Time
}

// App es el servicio armado.
type App struct {
	Config    *config.Config
	Handler   http.Handler
	OTP       *otp.Engine
	Gmail     *gmail.Manager
	Templates *templates.Repository
	History   *history.Log

	store   *storefactory.Opened
	sweeper *cron.Cron
}

// New construye todas las dependencias. El llamador debe invocar Close.
func New(ctx context.Context, cfg *config.Config, ov Overrides) (*App, error) {
	log := logger.From(ctx).With(logger.Component("app"))
	if ov.Now == nil {
		ov.Now = time.Now
	}

	opened, err := storefactory.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, store: opened}

	sender := ov.Sender
	if sender == nil {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			TLSMode:  cfg.SMTP.TLS,
		})
	}

	a.OTP, err = otp.NewEngine(otp.Config{
		TTL:         config.Dur(cfg.OTP.TTL, otp.DefaultTTL),
		MaxAttempts: cfg.OTP.MaxAttempts,
		Brand:       cfg.OTP.BrandName,
	}, otp.Deps{Store: opened.Store, Sender: sender, Now: ov.Now})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	provider := ov.Provider
	if provider == nil {
		g := cfg.Google
		provider = google.New(google.Config{
			ClientID:     g.ClientID,
			ClientSecret: g.ClientSecret,
			RedirectURL:  g.RedirectURL,
			Scopes:       g.Scopes,
			Endpoints: google.Endpoints{
				AuthURL:   g.AuthURL,
				TokenURL:  g.TokenURL,
				RevokeURL: g.RevokeURL,
				GmailURL:  g.GmailURL,
			},
			Timeout: config.Dur(g.HTTPTimeout, 15*time.Second),
		})
	}

	a.Templates = templates.NewRepository(opened.Store, ov.Now)
	a.History = history.NewLog(opened.Store).WithLimits(cfg.History.DefaultLimit, cfg.History.MaxLimit)
	a.Gmail, err = gmail.NewManager(gmail.Deps{
		Store:     opened.Store,
		Provider:  provider,
		State:     gmail.NewStateCodec(cfg.Google.StateSecret, ov.Now),
		Templates: a.Templates,
		History:   a.History,
		Now:       ov.Now,
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	mcfg := metrics.Config{Registry: ov.Registry}
	if opened.PG != nil {
		mcfg.PGPool = opened.PG.Pool
	}
	metricsHandler, err := metrics.Register(mcfg)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	sendRules, verifyRules := a.rateRules()
	a.Handler = router.New(router.Deps{
		Health:        healthctrl.NewHealthController(a.healthService()),
		OTP:           otpctrl.NewOTPController(a.OTP),
		Gmail:         gmailctrl.NewGmailController(a.Gmail),
		Templates:     tplctrl.NewTemplatesController(a.Templates),
		History:       historyctrl.NewHistoryController(a.History),
		Metrics:       metricsHandler,
		CORSOrigins:   cfg.Server.CORSAllowedOrigins,
		SendOTPRate:   sendRules,
		VerifyOTPRate: verifyRules,
	})

	if s := strings.TrimSpace(cfg.OTP.SweepSchedule); s != "" {
		a.sweeper, err = otp.StartSweeper(logger.ToContext(context.WithoutCancel(ctx), logger.L()), a.OTP, s)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		log.Info("otp sweeper scheduled", logger.String("schedule", s))
	}

	log.Info("app ready",
		logger.String("store", cfg.Store.Driver),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
		logger.String("rate_backend", cfg.Rate.Backend),
	)
	return a, nil
}

func (a *App) newLimiter(prefix string, r config.RateRule) rate.Limiter {
	window := config.Dur(r.Window, time.Minute)
	if strings.EqualFold(a.Config.Rate.Backend, "redis") && a.store.Redis != nil {
		return rate.NewRedisLimiter(a.store.Redis, a.Config.Store.Redis.Prefix+"rl:"+prefix+":", r.Limit, window)
	}
	return rate.NewMemoryLimiter(r.Limit, window)
}

func (a *App) rateRules() (send, verify []mw.RateRule) {
	rc := a.Config.Rate
	if !rc.Enabled {
		return nil, nil
	}
	send = []mw.RateRule{
		{Name: "send_otp_ip", Limiter: a.newLimiter("send_ip", rc.SendOTP.PerIP), Key: mw.IPRateKey},
		{Name: "send_otp_address", Limiter: a.newLimiter("send_addr", rc.SendOTP.PerAddress), Key: mw.BodyFieldRateKey("email", otp.Normalize)},
	}
	verify = []mw.RateRule{
		{Name: "verify_otp_ip", Limiter: a.newLimiter("verify_ip", rc.VerifyOTP.PerIP), Key: mw.IPRateKey},
	}
	return send, verify
}

func (a *App) healthService() healthsvc.HealthService {
	deps := healthsvc.Deps{
		Critical: map[string]healthsvc.Checker{"store": a.store.Store.Ping},
		Optional: map[string]healthsvc.Checker{},
		Version:  a.Config.App.Version,
	}
	if r := a.store.Redis; r != nil {
		deps.Optional["redis"] = func(ctx context.Context) error { return r.Ping(ctx).Err() }
	} else {
		deps.Optional["redis"] = nil
	}
	return healthsvc.NewHealthService(deps)
}

// SweepOnce corre un barrido de challenges vencidos (CLI).
func (a *App) SweepOnce(ctx context.Context) (int, error) {
	return a.OTP.SweepExpired(ctx)
}

// Close detiene el sweeper y cierra el store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.sweeper != nil {
		select {
		case <-a.sweeper.Stop().Done():
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
