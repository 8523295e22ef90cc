package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

func main() {

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := accounts.LoadConfig()
	if err != nil {
		lgr.Error("config error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := accounts.OpenDB(cfg.DBDSN, !cfg.IsProduction())
	if err != nil {
		lgr.Error("unable to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := accounts.EnsureSchema(ctx, db); err != nil {
		lgr.Error("unable to ensure schema", "error", err)
		os.Exit(1)
	}

	repo := accounts.NewRepositoryManager(db)

	tokens := accounts.NewTokenService(
		[]byte(cfg.SigningSecret),
		cfg.TokenIssuer,
		lgr.GetLogger("tokens"),
	)

	mailer := accounts.NewSMTPMailer(cfg.SMTP).
		WithLogger(lgr.GetLogger("mailer"))

	auther := accounts.NewAuthenticator(repo, tokens).
		WithLogger(lgr.GetLogger("auth"))

	app := fiber.New(fiber.Config{
		AppName:      "go-accounts",
		ErrorHandler: fiberErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigin,
		AllowCredentials: true,
	}))

	accounts.RegisterAuthRoutes(app,
		func(c *accounts.AuthController) *accounts.AuthController {
			c.Logger = lgr.GetLogger("http")
			c.Repo = repo
			c.Auther = auther
			c.Tokens = tokens
			c.Mailer = mailer
			c.Production = cfg.IsProduction()
			c.Debug = cfg.Debug
			return c
		},
	)

	go func() {
		lgr.Info("listening", "addr", cfg.Addr)
		if err := app.Listen(cfg.Addr); err != nil {
			lgr.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := waitExitSignal()
	lgr.Info("shutting down", "signal", sig.String())

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		lgr.Error("shutdown error", "error", err)
	}
}

func fiberErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"msg":     err.Error(),
	})
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
