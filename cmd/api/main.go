package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-eventops/internal/common/api"
	"go-eventops/internal/config"
	"go-eventops/internal/connectors"
	"go-eventops/internal/database"
	"go-eventops/internal/features/audit"
	"go-eventops/internal/features/auth"
	"go-eventops/internal/features/contact"
	cron_feature "go-eventops/internal/features/cron"
	"go-eventops/internal/features/document"
	"go-eventops/internal/features/invoice"
	"go-eventops/internal/features/mail"
	"go-eventops/internal/features/notification"
	"go-eventops/internal/features/org"
	"go-eventops/internal/features/system"
	"go-eventops/internal/features/user"
	"go-eventops/internal/features/workflow"
	"go-eventops/internal/logger"
	"go-eventops/internal/middleware"
	"go-eventops/pkg/utils"

	_ "go-eventops/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created.
// The reminder log unique index is what keeps concurrent sends idempotent,
// so failures here are logged loudly.
func InitializeIndexes(lc fx.Lifecycle, reminderLogs invoice.ReminderLogRepository, appLogger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := reminderLogs.EnsureIndexes(ctx); err != nil {
					appLogger.Error("Failed to ensure reminder log indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// auditUserAdapter narrows the user repository to the lookup the audit
// feature needs for populating actor names.
type auditUserAdapter struct {
	repo user.UserRepository
}

func (a *auditUserAdapter) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]audit.AuditActor, error) {
	users, err := a.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	actors := make([]audit.AuditActor, 0, len(users))
	for _, u := range users {
		actors = append(actors, audit.AuditActor{ID: u.ID, Username: u.Username})
	}
	return actors, nil
}

// @title           EventOps Approval API
// @version         1.0
// @description     Approval workflow and invoice reminder service.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			audit.NewAuditRepository,
			org.NewOrganizationRepository,
			org.NewDepartmentRepository,
			org.NewMembershipRepository,
			user.NewUserRepository,
			contact.NewContactRepository,
			contact.NewCompanyRepository,
			document.NewDocumentRepository,
			workflow.NewWorkflowRepository,
			workflow.NewApprovalRequestRepository,
			notification.NewNotificationRepository,
			invoice.NewInvoiceRepository,
			invoice.NewReminderSequenceRepository,
			invoice.NewReminderLogRepository,

			// Connectors
			connectors.NewAuditArchiver,
			mail.NewSMTPSender,
			notification.NewHub,

			audit.NewAuditService,
			auth.NewAuthService,
			user.NewUserService,
			notification.NewNotificationService,
			workflow.NewWorkflowService,
			workflow.NewApproverResolver,
			document.NewSubmissionService,
			invoice.NewReminderService,
			cron_feature.NewScheduler,

			// Interface Adapters to satisfy Fx
			func(r user.UserRepository) audit.UserFinder { return &auditUserAdapter{repo: r} },

			// Initialize Controller
			auth.NewAuthController,
			user.NewUserController,
			audit.NewAuditController,
			notification.NewNotificationController,
			workflow.NewWorkflowController,
			document.NewDocumentController,
			invoice.NewInvoiceController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(workflow.NewWorkflowApi),
			AsRoute(document.NewDocumentApi),
			AsRoute(invoice.NewInvoiceApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			cron_feature.RegisterSchedulerLifecycle,
			InitializeIndexes,
			func(lc fx.Lifecycle, archiver *connectors.AuditArchiver) {
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						return archiver.Close()
					},
				})
			},
		),
	)

	app.Run()
}
