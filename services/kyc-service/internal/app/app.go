package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/classify"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/db"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/docanalysis"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/erp"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/extract"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/inference"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/notify"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/server"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/store"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "kyc-service",
	Short: "JupiterBrains KYC Service",
	Long:  "Processes customer onboarding emails: classification, document analysis, tamper detection and ERP sync",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the KYC HTTP service",
	Long:  "Serves the KYC workflow API until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool, err := db.Connect(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if pool != nil {
			defer pool.Close()
		} else {
			log.Printf("[KYC] database.url not set, audit persistence disabled")
		}

		var provider inference.Provider
		var usage server.UsageReporter
		if apiKey := viper.GetString("inference.api_key"); apiKey != "" {
			groq := inference.NewGroqClient(inference.Config{
				Endpoint:        viper.GetString("inference.endpoint"),
				APIKey:          apiKey,
				DailyTokenLimit: viper.GetInt("inference.daily_token_limit"),
			})
			provider = groq
			usage = groq
		} else {
			log.Printf("[KYC] inference.api_key not set, running on keyword fallbacks")
		}

		var invoker erp.Invoker
		if erpURL := viper.GetString("erp.url"); erpURL != "" {
			invoker = erp.NewClient(erpURL,
				viper.GetString("erp.username"),
				viper.GetString("erp.password"))
		} else {
			log.Printf("[KYC] erp.url not set, ERP sync disabled")
		}

		mailer := notify.NewMailer(notify.Config{
			Host:     viper.GetString("smtp.host"),
			Port:     viper.GetInt("smtp.port"),
			Username: viper.GetString("smtp.username"),
			Password: viper.GetString("smtp.password"),
			From:     viper.GetString("smtp.from"),
		})

		model := viper.GetString("inference.model")
		extractor := extract.New(viper.GetString("ocr.binary"))
		analyzer := docanalysis.New(provider, model)
		runs := store.NewRunStore(pool)

		orchestrator := workflow.New(
			classify.New(provider, model),
			extractor,
			analyzer,
			erp.NewRecordSync(invoker),
			runs,
			mailer,
		)

		router := server.NewRouter(server.Deps{
			Workflow:  orchestrator,
			Extractor: extractor,
			Analyzer:  analyzer,
			Runs:      runs,
			Usage:     usage,
		})

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", viper.GetInt("server.port")),
			Handler: router,
		}

		errChan := make(chan error, 1)
		go func() {
			log.Printf("[KYC] listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- err
				return
			}
			errChan <- nil
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigChan:
			fmt.Println("\nShutting down gracefully...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return <-errChan
		case err := <-errChan:
			return err
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Flags
	rootCmd.PersistentFlags().Int("server.port", 8000, "HTTP listen port")
	rootCmd.PersistentFlags().String("database.url", "", "Audit database connection URL")
	rootCmd.PersistentFlags().String("inference.api_key", "", "Inference API key")
	rootCmd.PersistentFlags().String("inference.endpoint", "", "Inference API endpoint (OpenAI-compatible)")
	rootCmd.PersistentFlags().String("inference.model", "", "Inference model name")
	rootCmd.PersistentFlags().Int("inference.daily_token_limit", 100000, "Daily inference token budget")
	rootCmd.PersistentFlags().String("erp.url", "", "Odoo base URL")
	rootCmd.PersistentFlags().String("erp.username", "", "Odoo login")
	rootCmd.PersistentFlags().String("erp.password", "", "Odoo password")
	rootCmd.PersistentFlags().String("smtp.host", "", "SMTP host for customer notifications")
	rootCmd.PersistentFlags().Int("smtp.port", 587, "SMTP port")
	rootCmd.PersistentFlags().String("smtp.username", "", "SMTP username")
	rootCmd.PersistentFlags().String("smtp.password", "", "SMTP password")
	rootCmd.PersistentFlags().String("smtp.from", "", "Notification sender address")
	rootCmd.PersistentFlags().String("ocr.binary", "tesseract", "OCR binary for image attachments")

	// Bind flags to viper
	viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("server.port"))
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database.url"))
	viper.BindPFlag("inference.api_key", rootCmd.PersistentFlags().Lookup("inference.api_key"))
	viper.BindPFlag("inference.endpoint", rootCmd.PersistentFlags().Lookup("inference.endpoint"))
	viper.BindPFlag("inference.model", rootCmd.PersistentFlags().Lookup("inference.model"))
	viper.BindPFlag("inference.daily_token_limit", rootCmd.PersistentFlags().Lookup("inference.daily_token_limit"))
	viper.BindPFlag("erp.url", rootCmd.PersistentFlags().Lookup("erp.url"))
	viper.BindPFlag("erp.username", rootCmd.PersistentFlags().Lookup("erp.username"))
	viper.BindPFlag("erp.password", rootCmd.PersistentFlags().Lookup("erp.password"))
	viper.BindPFlag("smtp.host", rootCmd.PersistentFlags().Lookup("smtp.host"))
	viper.BindPFlag("smtp.port", rootCmd.PersistentFlags().Lookup("smtp.port"))
	viper.BindPFlag("smtp.username", rootCmd.PersistentFlags().Lookup("smtp.username"))
	viper.BindPFlag("smtp.password", rootCmd.PersistentFlags().Lookup("smtp.password"))
	viper.BindPFlag("smtp.from", rootCmd.PersistentFlags().Lookup("smtp.from"))
	viper.BindPFlag("ocr.binary", rootCmd.PersistentFlags().Lookup("ocr.binary"))

	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./services/kyc-service")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
