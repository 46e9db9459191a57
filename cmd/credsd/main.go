// credsd serves WhatsApp Web linking sessions over HTTP: a caller asks for a
// pairing code or a QR payload, links the account from the phone, and the
// resulting creds.json is delivered back or to the account's own chat.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/color"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nomfundokagwe/Creds.json-session-id/config"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/app"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairapi"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/qrrender"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/webserver"
)

const banner = `
  ___ _ __ ___  __| |___  __| |
 / __| '__/ _ \/ _' / __|/ _' |
| (__| | |  __/ (_| \__ \ (_| |
 \___|_|  \___|\__,_|___/\__,_|
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		printQR    bool
		qrFormat   string
	)
	flagSet := pflag.NewFlagSet("credsd", pflag.ContinueOnError)
	flagSet.StringVarP(&configFile, "config", "c", "", "path to the YAML config file")
	flagSet.BoolVar(&printQR, "print-qr", false, "draw every issued QR code on the terminal")
	flagSet.StringVar(&qrFormat, "qr-format", "", "QR response format: raw or png (overrides the config)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if printQR {
		cfg.Pairing.PrintQR = true
	}
	if qrFormat != "" {
		cfg.Pairing.QRFormat = qrFormat
	}
	renderer, err := qrrender.New(cfg.Pairing.QRFormat)
	if err != nil {
		return err
	}

	application := app.NewApplication(cfg)
	if err := application.Init(); err != nil {
		return err
	}
	defer application.Release()

	srv := webserver.New(cfg.Web)
	pairapi.New(
		pairapi.Orchestrated(application.Orchestrator()),
		application.Journal(),
		application.Metrics(),
		renderer,
	).Register(srv)

	printBanner(srv.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("credsd: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout+5*time.Second)
		defer cancel()
		// live sessions answer their waiting callers before the server drains
		appErr := application.Shutdown(shutdownCtx)
		webErr := srv.Shutdown(context.Background())
		return errors.Join(appErr, webErr)
	})
	return g.Wait()
}

func printBanner(addr string) {
	fmt.Println(color.Green(banner))
	fmt.Printf("%s %s\n\n", color.Bold("Server running on"), color.Cyan("http://"+addr))
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: credsd [flags]\n\nServes WhatsApp linking sessions and hands out creds.json.\n\nFlags:\n")
	flagSet.PrintDefaults()
}
