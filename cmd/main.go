package main

import (
	"school-service/internal/backfill"
	"school-service/internal/handler"
	"school-service/internal/middleware"
	"school-service/internal/model"
	"school-service/internal/role"
	"school-service/internal/tenant"
	"school-service/internal/ws"
	"school-service/pkg/config"
	"school-service/pkg/database"
	"school-service/pkg/jwtutil"
	"school-service/pkg/logger"
	"school-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	log := logger.GetLogger()
	log.Info("Starting school service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.MigrateModels(
		&model.User{},
		&model.School{},
		&model.Department{},
		&model.Teacher{},
		&model.Student{},
		&model.Parent{},
		&model.Class{},
		&model.Fee{},
		&model.PaymentHistory{},
		&model.Admission{},
		&model.Bus{},
		&model.BusStop{},
		&model.Event{},
		&model.ChatMessage{},
		&model.BackfillRun{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations completed")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire handler dependencies
	resolver := tenant.NewResolver(tenant.NewGormDirectory(db))
	hub := ws.NewHub(db, log, cfg.Server.CORSOrigins)
	runner := backfill.NewRunner(db, resolver, log)
	handler.Init(resolver, hub, runner, cfg.Upload.Dir)

	// Initialize Echo framework
	e := echo.New()
	e.Validator = handler.NewValidator()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
	}))
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(middleware.MetricsMiddleware)

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)
	auth.POST("/refresh", handler.Refresh)

	// Profile routes shared by every authenticated role
	me := e.Group("/api/me", middleware.AuthMiddleware)
	me.GET("", handler.GetProfile)
	me.POST("/change-password", handler.ChangePassword)

	// Chat upgrades carry their token in the query string, so they sit
	// outside the header-based auth middleware
	e.GET("/ws/teacher-student/:room", handler.ChatTeacherStudent)
	e.GET("/ws/teacher-parent/:room", handler.ChatTeacherParent)

	// Super admin namespace: cross-school administration
	super := e.Group("/api/super-admin", middleware.AuthMiddleware,
		middleware.RequireRole(role.SuperAdmin))
	super.POST("/schools", handler.CreateSchool)
	super.GET("/schools", handler.ListSchools)
	super.GET("/schools/:id", handler.GetSchool)
	super.PATCH("/schools/:id", handler.UpdateSchool)
	super.DELETE("/schools/:id", handler.DeleteSchool)
	super.POST("/users", handler.CreateUser)
	super.GET("/users", handler.ListUsers)
	super.GET("/users/:id", handler.GetUser)
	super.POST("/backfill", handler.RunBackfill)
	super.GET("/backfill", handler.ListBackfillRuns)

	// Management admin namespace: everything within one school
	admin := e.Group("/api/management-admin", middleware.AuthMiddleware,
		middleware.RequireRole(role.ManagementAdmin, role.SuperAdmin))
	admin.GET("/schools/:id", handler.GetSchool)
	admin.POST("/users", handler.CreateUser)
	admin.GET("/users", handler.ListUsers)
	admin.GET("/users/:id", handler.GetUser)
	admin.POST("/departments", handler.CreateDepartment)
	admin.GET("/departments", handler.ListDepartments)
	admin.GET("/departments/:id", handler.GetDepartment)
	admin.PATCH("/departments/:id", handler.UpdateDepartment)
	admin.DELETE("/departments/:id", handler.DeleteDepartment)
	admin.POST("/teachers", handler.CreateTeacher)
	admin.GET("/teachers", handler.ListTeachers)
	admin.GET("/teachers/:id", handler.GetTeacher)
	admin.PATCH("/teachers/:id", handler.UpdateTeacher)
	admin.DELETE("/teachers/:id", handler.DeleteTeacher)
	admin.POST("/students", handler.CreateStudent)
	admin.GET("/students", handler.ListStudents)
	admin.GET("/students/:id", handler.GetStudent)
	admin.PATCH("/students/:id", handler.UpdateStudent)
	admin.DELETE("/students/:id", handler.DeleteStudent)
	admin.POST("/parents", handler.CreateParent)
	admin.GET("/parents", handler.ListParents)
	admin.GET("/parents/:id", handler.GetParent)
	admin.PATCH("/parents/:id", handler.UpdateParent)
	admin.DELETE("/parents/:id", handler.DeleteParent)
	admin.POST("/classes", handler.CreateClass)
	admin.GET("/classes", handler.ListClasses)
	admin.GET("/classes/:id", handler.GetClass)
	admin.PATCH("/classes/:id", handler.UpdateClass)
	admin.DELETE("/classes/:id", handler.DeleteClass)
	admin.POST("/admissions", handler.CreateAdmission)
	admin.GET("/admissions", handler.ListAdmissions)
	admin.GET("/admissions/:id", handler.GetAdmission)
	admin.POST("/admissions/:id/approve", handler.ApproveAdmission)
	admin.POST("/admissions/:id/reject", handler.RejectAdmission)
	admin.POST("/buses", handler.CreateBus)
	admin.GET("/buses", handler.ListBuses)
	admin.GET("/buses/:id", handler.GetBus)
	admin.PATCH("/buses/:id", handler.UpdateBus)
	admin.DELETE("/buses/:id", handler.DeleteBus)
	admin.GET("/buses/:id/drop-off-view", handler.DropOffView)
	admin.POST("/events", handler.CreateEvent)
	admin.GET("/events", handler.ListEvents)
	admin.GET("/events/:id", handler.GetEvent)
	admin.PATCH("/events/:id", handler.UpdateEvent)
	admin.DELETE("/events/:id", handler.DeleteEvent)

	// Fee endpoints also open to the financial role
	fees := e.Group("/api/management-admin/fees", middleware.AuthMiddleware,
		middleware.RequireRole(role.ManagementAdmin, role.SuperAdmin, role.Financial))
	fees.POST("", handler.CreateFee)
	fees.GET("", handler.ListFees)
	fees.GET("/:id", handler.GetFee)
	fees.POST("/:id/record-payment", handler.RecordPayment)
	fees.GET("/:id/payments", handler.ListPayments)
	fees.POST("/:id/payments/:paymentId/upload-receipt", handler.UploadReceipt)

	// Teacher namespace: read rosters, manage own classes, message families
	teacher := e.Group("/api/teacher", middleware.AuthMiddleware,
		middleware.RequireRole(role.Teacher))
	teacher.GET("/students", handler.ListStudents)
	teacher.GET("/students/:id", handler.GetStudent)
	teacher.GET("/parents", handler.ListParents)
	teacher.POST("/classes", handler.CreateClass)
	teacher.GET("/classes", handler.ListClasses)
	teacher.GET("/classes/:id", handler.GetClass)
	teacher.PATCH("/classes/:id", handler.UpdateClass)
	teacher.GET("/events", handler.ListEvents)
	teacher.GET("/buses", handler.ListBuses)
	teacher.GET("/buses/:id/drop-off-view", handler.DropOffView)
	teacher.GET("/chats/:room", handler.ListChatMessages)

	// Student/parent namespace: own-family reads only
	family := e.Group("/api/student-parent", middleware.AuthMiddleware,
		middleware.RequireRole(role.StudentParent))
	family.GET("/children", handler.MyChildren)
	family.GET("/students/:id", handler.GetStudent)
	family.GET("/fees", handler.ListFees)
	family.GET("/fees/:id", handler.GetFee)
	family.GET("/fees/:id/payments", handler.ListPayments)
	family.GET("/events", handler.ListEvents)
	family.GET("/buses", handler.ListBuses)
	family.GET("/buses/:id/drop-off-view", handler.DropOffView)
	family.GET("/chats/:room", handler.ListChatMessages)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
