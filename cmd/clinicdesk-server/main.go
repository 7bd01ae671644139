package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain/booking"
	"github.com/clinicdesk/clinicdesk/internal/domain/directory"
	"github.com/clinicdesk/clinicdesk/internal/platform/middleware"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

// NotifierAdapter bridges the booking manager's fire-and-forget notification
// hook to the notification platform, avoiding a dependency from the platform
// package back into the booking domain.
type NotifierAdapter struct {
	mgr          *notification.Manager
	emailEnabled bool
	smsEnabled   bool
}

// NewNotifierAdapter creates the adapter used by the booking manager.
func NewNotifierAdapter(mgr *notification.Manager, emailEnabled, smsEnabled bool) *NotifierAdapter {
	return &NotifierAdapter{mgr: mgr, emailEnabled: emailEnabled, smsEnabled: smsEnabled}
}

// Notify implements booking.Notifier.
func (a *NotifierAdapter) Notify(ctx context.Context, appt *booking.Appointment, doctor *directory.Doctor, kind booking.NotificationKind) error {
	data := map[string]string{
		"patient_name":   appt.Patient.Name,
		"doctor_name":    doctor.DisplayName(),
		"specialization": doctor.Specialization.Label(),
		"date":           appt.StartTime.Format("2006-01-02"),
		"time":           appt.StartTime.Format("15:04"),
		"address":        doctor.Address,
		"reference":      appt.ReferenceNumber,
	}

	var templateID string
	switch kind {
	case booking.NotifyConfirmation:
		templateID = notification.TemplateBookingConfirmation
	case booking.NotifyReminder:
		templateID = notification.TemplateAppointmentReminder
	case booking.NotifyCancellation:
		templateID = notification.TemplateCancellation
	default:
		return fmt.Errorf("unknown notification kind: %s", kind)
	}

	if a.emailEnabled {
		if _, err := a.mgr.SendFromTemplate(ctx, templateID, data, appt.Patient.Email); err != nil {
			return err
		}
	}
	if a.smsEnabled && kind == booking.NotifyReminder {
		if _, err := a.mgr.SendFromTemplate(ctx, notification.TemplateSMSReminder, data, appt.Patient.Phone); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicdesk-server",
		Short: "Appointment scheduling and booking server",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	doctors  *directory.MemRepo
	store    *booking.Store
	bookings *booking.Manager
	notifMgr *notification.Manager
	dirSvc   *directory.Service
}

func buildApp() (*app, error) {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	doctors, err := directory.NewSeededRepo(directory.SeedDoctors())
	if err != nil {
		return nil, fmt.Errorf("seed doctor registry: %w", err)
	}

	store, err := booking.NewStore(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open appointment store: %w", err)
	}

	minAdvance := time.Duration(cfg.MinAdvanceHours) * time.Hour
	maxAdvance := time.Duration(cfg.MaxAdvanceDays) * 24 * time.Hour

	engine := booking.NewAvailabilityEngine(doctors, store)
	engine.SetAdvanceWindow(minAdvance, maxAdvance)

	validator := booking.NewValidator(doctors, store, engine)
	validator.SetAdvanceWindow(minAdvance, maxAdvance)
	validator.SetRecentVisitSpan(time.Duration(cfg.RecentVisitDays) * 24 * time.Hour)

	// Real email/SMS providers are an external collaborator; the mock
	// senders log deliveries into the in-memory delivery log.
	notifMgr := notification.NewManager(&notification.MockEmailSender{}, &notification.MockSMSSender{}, notification.NewTemplateEngine())
	notifier := NewNotifierAdapter(notifMgr, cfg.EmailEnabled, cfg.SMSEnabled)

	bookings := booking.NewManager(doctors, store, validator, engine, notifier, logger)
	bookings.SetCancelNotice(time.Duration(cfg.CancelNoticeHours) * time.Hour)

	return &app{
		cfg:      cfg,
		logger:   logger,
		doctors:  doctors,
		store:    store,
		bookings: bookings,
		notifMgr: notifMgr,
		dirSvc:   directory.NewService(doctors),
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	logger := a.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	directory.NewHandler(a.dirSvc).RegisterRoutes(apiV1)
	booking.NewHandler(a.bookings).RegisterRoutes(apiV1)
	notification.NewHandler(a.notifMgr).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":       "ok",
			"appointments": a.store.Len(),
		})
	})

	// Graceful shutdown
	go func() {
		addr := ":" + a.cfg.Port
		logger.Info().Str("addr", addr).Str("data_dir", a.cfg.DataDir).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func backupCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a point-in-time copy of the appointment store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			path, err := a.store.Backup(name)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Backup file name (default: timestamped)")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export all appointments as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			path, err := a.store.ExportCSV()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print appointment statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			stats := a.store.Stats()
			fmt.Printf("Total appointments:  %d\n", stats.TotalAppointments)
			for status, count := range stats.StatusBreakdown {
				fmt.Printf("  %-12s %d\n", status+":", count)
			}
			fmt.Printf("Today:               %d\n", stats.TodayAppointments)
			fmt.Printf("Next 7 days:         %d\n", stats.NextWeekAppointments)
			fmt.Printf("Unique doctors:      %d\n", stats.UniqueDoctors)
			fmt.Printf("Unique patients:     %d\n", stats.UniquePatients)
			fmt.Printf("Data file:           %s\n", stats.DataFile)
			return nil
		},
	}
}
