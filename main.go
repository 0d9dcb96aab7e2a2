package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"cafe-server/handlers"
	"cafe-server/middleware"
	"cafe-server/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}
	mapsAPIKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if mapsAPIKey == "" {
		log.Fatal("GOOGLE_MAPS_API_KEY environment variable is not set")
	}

	// MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	if err := client.Ping(context.Background(), nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")
	db := client.Database("cafe_db")

	// Redis
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Fatal("REDIS_ADDR environment variable is not set")
	}
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		redisDB, err = strconv.Atoi(redisDBStr)
		if err != nil {
			log.Fatalf("Invalid REDIS_DB value: %v", err)
		}
	}
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: redisDB})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Stores and services
	profileStore := services.NewMongoProfileStore(db, redisClient)
	reviewStore := services.NewMongoReviewStore(db)

	authService := services.NewAuthService(profileStore, jwtSecret)
	friendService := services.NewFriendService(profileStore)
	reviewService := services.NewReviewService(reviewStore)
	placesService := services.NewPlacesService(redisClient, mapsAPIKey)

	authHandler := handlers.NewAuthHandler(authService)
	friendHandler := handlers.NewFriendHandler(friendService, profileStore)
	reviewHandler := handlers.NewReviewHandler(reviewService, profileStore)
	cafeHandler := handlers.NewCafeHandler(placesService)

	r := mux.NewRouter()

	allowedOrigins := []string{"http://localhost:3000", "http://localhost:19006"}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	r.Use(middleware.ErrorMiddleware())

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.RegisterUser).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.LoginUser).Methods("POST", "OPTIONS")

	// User routes
	userRouter := r.PathPrefix("/user").Subrouter()
	userRouter.Use(middleware.JWTMiddleware(jwtSecret))
	userRouter.HandleFunc("/me", friendHandler.GetMe).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/friends", friendHandler.GetOverview).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/watch", friendHandler.WatchProfile).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/search", friendHandler.SearchUsers).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/send-friend-request", friendHandler.SendFriendRequest).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/accept-friend-request", friendHandler.AcceptFriendRequest).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/decline-friend-request", friendHandler.DeclineFriendRequest).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/remove-friend", friendHandler.RemoveFriend).Methods("POST", "OPTIONS")

	// Cafe routes
	cafeRouter := r.PathPrefix("/cafes").Subrouter()
	cafeRouter.Use(middleware.JWTMiddleware(jwtSecret))
	cafeRouter.HandleFunc("/nearby", cafeHandler.GetNearbyCafes).Methods("GET", "OPTIONS")
	cafeRouter.HandleFunc("/{placeID}", cafeHandler.GetCafeDetails).Methods("GET", "OPTIONS")
	cafeRouter.HandleFunc("/{placeID}/reviews", reviewHandler.ListReviews).Methods("GET", "OPTIONS")
	cafeRouter.HandleFunc("/{placeID}/reviews", reviewHandler.SubmitReview).Methods("POST", "OPTIONS")
	cafeRouter.HandleFunc("/{placeID}/reviews/watch", reviewHandler.WatchReviews).Methods("GET", "OPTIONS")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
