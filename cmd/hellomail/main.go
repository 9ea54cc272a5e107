package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellomail/internal/app"
	"github.com/dropDatabas3/hellomail/internal/config"
	"github.com/dropDatabas3/hellomail/internal/email"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
)

type client struct {
	OutFormat string // "json" | "text"
	HTTP      *resty.Client
}

func (c *client) do(method, path string, body any) (int, []byte, error) {
	req := c.HTTP.R()
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

// call ejecuta y falla si el status no es 2xx.
func (c *client) call(name, method, path string, body any) error {
	status, b, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("%s fallo: status=%d body=%s", name, status, string(b))
	}
	c.print(status, b)
	return nil
}

func main() {
	var (
		baseURL = envOr("HELLOMAIL_URL", "http://localhost:8080")
		out     = envOr("HELLOMAIL_OUT", "text")
		timeout = 30 * time.Second
	)

	cl := &client{}
	root := &cobra.Command{
		Use:   "hellomail",
		Short: "CLI para el servicio de OTP y Gmail",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.OutFormat = out
			cl.HTTP = resty.New().
				SetBaseURL(strings.TrimRight(baseURL, "/")).
				SetTimeout(timeout)
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env HELLOMAIL_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Chequea /readyz",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/readyz", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	// otp
	otpCmd := &cobra.Command{Use: "otp", Short: "Códigos de un solo uso"}

	var reqEmail string
	otpRequestCmd := &cobra.Command{
		Use:   "request",
		Short: "Envía un código al email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reqEmail == "" {
				return fmt.Errorf("--email es requerido")
			}
			return cl.call("otp request", "POST", "/send-otp", map[string]string{"email": reqEmail})
		},
	}
	otpRequestCmd.Flags().StringVar(&reqEmail, "email", "", "Dirección destino")

	var verEmail, verCode string
	otpVerifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verifica un código",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verEmail == "" || verCode == "" {
				return fmt.Errorf("--email y --code son requeridos")
			}
			return cl.call("otp verify", "POST", "/verify-otp", map[string]string{"email": verEmail, "otp": verCode})
		},
	}
	otpVerifyCmd.Flags().StringVar(&verEmail, "email", "", "Dirección usada al pedir el código")
	otpVerifyCmd.Flags().StringVar(&verCode, "code", "", "Código de 6 dígitos")

	// sweep corre local contra el store configurado, no contra la API
	var sweepCfg string
	otpSweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Borra challenges vencidos del store configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(sweepCfg)
			if err != nil {
				return err
			}
			cfg.OTP.SweepSchedule = ""
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "hellomail-cli"})
			ctx := context.Background()
			noop := email.SenderFunc(func(context.Context, string, string, string, string) error { return nil })
			a, err := app.New(ctx, cfg, app.Overrides{Sender: noop})
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(ctx); err != nil {
					logger.S().Warnf("close: %v", err)
				}
			}()
			n, err := a.SweepOnce(ctx)
			if err != nil {
				return err
			}
			logger.S().Debugf("sweep done store=%s removed=%d", cfg.Store.Driver, n)
			if cl.OutFormat == "json" {
				fmt.Printf("{\"removed\":%d}\n", n)
			} else {
				fmt.Printf("removed=%d\n", n)
			}
			return nil
		},
	}
	otpSweepCmd.Flags().StringVar(&sweepCfg, "config", os.Getenv("CONFIG_PATH"), "Ruta al config YAML (env CONFIG_PATH)")

	otpCmd.AddCommand(otpRequestCmd, otpVerifyCmd, otpSweepCmd)

	// gmail
	gmailCmd := &cobra.Command{Use: "gmail", Short: "Conexión Gmail por usuario"}
	var gUser string
	gmailCmd.PersistentFlags().StringVar(&gUser, "user", "", "userId")
	requireUser := func(cmd *cobra.Command, args []string) error {
		if gUser == "" {
			return fmt.Errorf("--user es requerido")
		}
		return nil
	}

	gmailAuthCmd := &cobra.Command{
		Use:     "auth-url",
		Short:   "Imprime la URL de consentimiento",
		PreRunE: requireUser,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("gmail auth-url", "GET", "/gmail/auth-url?userId="+url.QueryEscape(gUser), nil)
		},
	}
	gmailStatusCmd := &cobra.Command{
		Use:     "status",
		Short:   "Estado de la conexión",
		PreRunE: requireUser,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("gmail status", "GET", "/gmail/status?userId="+url.QueryEscape(gUser), nil)
		},
	}
	gmailDisconnectCmd := &cobra.Command{
		Use:     "disconnect",
		Short:   "Revoca y borra la conexión",
		PreRunE: requireUser,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("gmail disconnect", "POST", "/gmail/disconnect", map[string]string{"userId": gUser})
		},
	}
	gmailCmd.AddCommand(gmailAuthCmd, gmailStatusCmd, gmailDisconnectCmd)

	// history
	var hUser string
	var hLimit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Últimos envíos del usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hUser == "" {
				return fmt.Errorf("--user es requerido")
			}
			path := "/history?userId=" + url.QueryEscape(hUser)
			if hLimit > 0 {
				path += "&limit=" + strconv.Itoa(hLimit)
			}
			return cl.call("history", "GET", path, nil)
		},
	}
	historyCmd.Flags().StringVar(&hUser, "user", "", "userId")
	historyCmd.Flags().IntVar(&hLimit, "limit", 0, "Cantidad máxima (opcional)")

	root.AddCommand(pingCmd, otpCmd, gmailCmd, historyCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
