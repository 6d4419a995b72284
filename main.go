package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"collabHubAPI/handlers"
	"collabHubAPI/internal/push"
	"collabHubAPI/internal/realtime"
	"collabHubAPI/middleware"
	"collabHubAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	hub                 *realtime.Hub
	profileService      *services.ProfileService
	notificationService *services.NotificationService
	connectionService   *services.ConnectionService
	conversationService *services.ConversationService
	resourceService     *services.ResourceService
	projectService      *services.ProjectService
	ratingService       *services.RatingService
	helpService         *services.HelpService
	accountService      *services.AccountService
	fcmService          *push.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	hub = realtime.NewHub()
	profileService = services.NewProfileService(dbPool)
	notificationService = services.NewNotificationService(dbPool, hub)
	connectionService = services.NewConnectionService(dbPool, profileService, notificationService)
	conversationService = services.NewConversationService(dbPool, profileService)
	resourceService = services.NewResourceService(dbPool, profileService, notificationService)
	projectService = services.NewProjectService(dbPool, profileService, notificationService)
	ratingService = services.NewRatingService(dbPool, profileService)
	helpService = services.NewHelpService(dbPool)
	accountService = services.NewAccountService(dbPool, profileService)

	fcmService, err = push.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	profileHandler := handlers.NewProfileHandler(profileService)
	connectionHandler := handlers.NewConnectionHandler(connectionService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, profileService, hub)
	resourceHandler := handlers.NewResourceHandler(resourceService)
	projectHandler := handlers.NewProjectHandler(projectService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	helpHandler := handlers.NewHelpHandler(helpService)
	accountHandler := handlers.NewAccountHandler(accountService)
	webhookHandler := handlers.NewWebhookHandler(profileService, accountService)

	r := mux.NewRouter()

	// The websocket route lives outside the standard middleware chain; the
	// server write timeout would kill long-lived connections.
	r.HandleFunc("/api/v1/notifications/subscribe", notificationHandler.Subscribe)

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "collabHub-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// Help center reading works logged out; a valid token is simply carried
	// along when present.
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuthMiddleware)
	public.HandleFunc("/help/articles", helpHandler.GetArticles).Methods("GET")
	public.HandleFunc("/help/articles/{slug}", helpHandler.GetArticle).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/profile/me", profileHandler.GetMe).Methods("GET")
	protected.HandleFunc("/profile/me", profileHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/users/search", profileHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/users/discover", profileHandler.GetDiscovery).Methods("GET")
	protected.HandleFunc("/users/{id}", profileHandler.GetPublicProfile).Methods("GET")
	protected.HandleFunc("/users/{id}/rating", ratingHandler.RateUser).Methods("POST")
	protected.HandleFunc("/users/{id}/rating", ratingHandler.GetUserRating).Methods("GET")
	protected.HandleFunc("/users/{id}/score", ratingHandler.GetCollaborationScore).Methods("GET")

	protected.HandleFunc("/connections", connectionHandler.GetConnections).Methods("GET")
	protected.HandleFunc("/connections", connectionHandler.SendConnectionRequest).Methods("POST")
	protected.HandleFunc("/connections/status/{userId}", connectionHandler.GetConnectionStatus).Methods("GET")
	protected.HandleFunc("/connections/{id}", connectionHandler.UpdateConnectionStatus).Methods("PUT")
	protected.HandleFunc("/connections/{id}", connectionHandler.RemoveCollaborator).Methods("DELETE")

	protected.HandleFunc("/conversations", conversationHandler.GetConversations).Methods("GET")
	protected.HandleFunc("/conversations", conversationHandler.CreateOrGetConversation).Methods("POST")
	protected.HandleFunc("/conversations/{id}/messages", conversationHandler.GetMessages).Methods("GET")
	protected.HandleFunc("/conversations/{id}/messages", conversationHandler.SendMessage).Methods("POST")
	protected.HandleFunc("/messages/{id}/read", conversationHandler.MarkMessageAsRead).Methods("PUT")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")

	protected.HandleFunc("/resources", resourceHandler.GetResources).Methods("GET")
	protected.HandleFunc("/resources", resourceHandler.CreateResource).Methods("POST")
	protected.HandleFunc("/resources/mine", resourceHandler.GetOwnResources).Methods("GET")
	protected.HandleFunc("/resources/bookmarks", resourceHandler.GetBookmarkedResources).Methods("GET")
	protected.HandleFunc("/resources/trending", resourceHandler.GetTrendingTopics).Methods("GET")
	protected.HandleFunc("/resources/{id}", resourceHandler.GetResource).Methods("GET")
	protected.HandleFunc("/resources/{id}", resourceHandler.DeleteResource).Methods("DELETE")
	protected.HandleFunc("/resources/{id}/bookmark", resourceHandler.ToggleBookmark).Methods("POST")
	protected.HandleFunc("/resources/{id}/like", resourceHandler.ToggleLike).Methods("POST")
	protected.HandleFunc("/resources/{id}/comments", resourceHandler.GetComments).Methods("GET")
	protected.HandleFunc("/resources/{id}/comments", resourceHandler.AddComment).Methods("POST")

	protected.HandleFunc("/projects", projectHandler.GetProjects).Methods("GET")
	protected.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	protected.HandleFunc("/projects/{id}/status", projectHandler.UpdateProjectStatus).Methods("PUT")
	protected.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods("DELETE")
	protected.HandleFunc("/projects/{id}/tasks", projectHandler.GetTasks).Methods("GET")
	protected.HandleFunc("/projects/{id}/tasks", projectHandler.CreateTask).Methods("POST")
	protected.HandleFunc("/tasks/{id}", projectHandler.UpdateTask).Methods("PUT")
	protected.HandleFunc("/tasks/{id}", projectHandler.DeleteTask).Methods("DELETE")

	protected.HandleFunc("/help/support", helpHandler.SubmitSupportRequest).Methods("POST")

	protected.HandleFunc("/account", accountHandler.DeleteAccount).Methods("DELETE")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	notificationService.StopDispatcher()

	log.Println("Server shutdown complete")
}
