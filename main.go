package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/handlers"
	"github.com/hasnain-a7/nextProjectFlow/logging"
	"github.com/hasnain-a7/nextProjectFlow/middleware"
	"github.com/hasnain-a7/nextProjectFlow/repositories"
	"github.com/hasnain-a7/nextProjectFlow/services"
	"github.com/hasnain-a7/nextProjectFlow/store"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting nextProjectFlow backend...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoURI == "" || mongoDBName == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: MONGO_URI and MONGO_DB_NAME must be set.")
	}
	if os.Getenv("JWT_SECRET") == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: JWT_SECRET must be set.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	documentStore := store.NewMongoStore(db)

	blackList := map[string]bool{}
	if blackListPath := os.Getenv("PASSWORD_BLACKLIST_FILE"); blackListPath != "" {
		blackList, err = services.LoadBlackList(blackListPath)
		if err != nil {
			logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: Failed to load password blacklist: %v", err)
		}
	}

	registry := services.NewCacheRegistry(documentStore)
	userService := services.NewUserService(db.Collection("users"), documentStore, blackList)
	chatService := services.NewChatService(documentStore)

	assistantBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CompletionServiceCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	assistantService := services.NewAssistantService(os.Getenv("GEMINI_API_KEY"), assistantBreaker)

	// Notifications are optional: without a reachable Cassandra the rest
	// of the service still runs.
	var notificationService *services.NotificationService
	notificationRepo, err := repositories.NewNotificationRepo(logging.Logger)
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATIONS_DISABLED, Description: Cassandra unavailable, notifications disabled: %v", err)
	} else {
		defer notificationRepo.CloseSession()
		notificationRepo.CreateTable()
		notificationService = services.NewNotificationService(notificationRepo)
	}

	projectHandler := handlers.NewProjectHandler(registry, notificationService)
	userHandler := handlers.NewUserHandler(userService, registry)
	chatHandler := handlers.NewChatHandler(chatService)
	assistantHandler := handlers.NewAssistantHandler(assistantService)

	// Expired unverified accounts are swept in the background.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if err := userService.DeleteExpiredUnverifiedUsers(context.Background()); err != nil {
				logging.Logger.Errorf("Event ID: EXPIRED_USER_SWEEP_FAILED, Description: %v", err)
			}
		}
	}()

	// Daily deadline reminders for tasks coming due.
	if notificationService != nil {
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				if err := notificationService.RemindUpcomingDeadlines(context.Background(), documentStore); err != nil {
					logging.Logger.Errorf("Event ID: DEADLINE_SWEEP_FAILED, Description: %v", err)
				}
			}
		}()
	}

	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/api/auth/register", userHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/confirm", userHandler.ConfirmEmail).Methods("POST")
	r.HandleFunc("/api/auth/login", userHandler.Login).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}/chat/ws", chatHandler.Subscribe).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("nextProjectFlow backend is running"))
	}).Methods("GET")

	// Authenticated routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuth)

	api.HandleFunc("/auth/logout", userHandler.Logout).Methods("POST")
	api.HandleFunc("/auth/change-password", userHandler.ChangePassword).Methods("POST")
	api.HandleFunc("/auth/account", userHandler.DeleteAccount).Methods("DELETE")

	api.HandleFunc("/users/me", userHandler.GetProfile).Methods("GET")
	api.HandleFunc("/users/me", userHandler.UpdateProfile).Methods("PUT")

	api.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects/reload", projectHandler.ReloadProjects).Methods("POST")
	api.HandleFunc("/projects/{projectId}", projectHandler.GetProjectByID).Methods("GET")
	api.HandleFunc("/projects/{projectId}", projectHandler.UpdateProject).Methods("PUT")
	api.HandleFunc("/projects/{projectId}", projectHandler.DeleteProject).Methods("DELETE")

	api.HandleFunc("/projects/{projectId}/tasks", projectHandler.CreateTask).Methods("POST")
	api.HandleFunc("/projects/{projectId}/tasks/{taskId}", projectHandler.UpdateTask).Methods("PUT")
	api.HandleFunc("/projects/{projectId}/tasks/{taskId}", projectHandler.DeleteTask).Methods("DELETE")

	api.HandleFunc("/projects/{projectId}/chat", chatHandler.History).Methods("GET")
	api.HandleFunc("/projects/{projectId}/chat", chatHandler.Send).Methods("POST")

	api.HandleFunc("/chat", assistantHandler.Chat).Methods("POST")

	if notificationService != nil {
		notificationHandler := handlers.NewNotificationHandler(notificationService)
		api.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
		api.HandleFunc("/notifications/read", notificationHandler.MarkAsRead).Methods("PUT")
		api.HandleFunc("/notifications/delete", notificationHandler.DeleteNotification).Methods("DELETE")
	}

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
