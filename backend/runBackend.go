package backend

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jghoshh/getfit/backend/coaching"
	"github.com/jghoshh/getfit/backend/config"
	"github.com/jghoshh/getfit/backend/queue"
	"github.com/jghoshh/getfit/backend/repository"
	"github.com/jghoshh/getfit/backend/scheduler"
	"github.com/jghoshh/getfit/backend/server"
	"github.com/jghoshh/getfit/backend/server/auth"
	"github.com/jghoshh/getfit/backend/server/notifications/email"
	"github.com/jghoshh/getfit/backend/storage/cache"
	"github.com/jghoshh/getfit/backend/storage/persistent"
)

const numCoachingProducers = 1

// RunBackend is the main function that sets up and runs the backend server.
// It blocks until SIGINT or SIGTERM.
func RunBackend() {
	cfg := config.Load("backend/.env", ".env")
	if cfg.SigningKey == "" {
		log.Fatal("JWT_SIGNING_KEY must be set")
	}
	ctx := context.Background()

	// Document storage and the typed repository over it.
	store, err := persistent.NewStore(ctx, persistent.Options{
		Driver:           cfg.StoreDriver,
		MongoURI:         cfg.MongoURI,
		DBName:           cfg.DBName,
		FirestoreProject: cfg.FirestoreProject,
	})
	if err != nil {
		log.Fatal(err)
	}
	repo := repository.New(store)
	authenticator := auth.New(store, repo, cfg.SigningKey)

	// Key value cache for coaching advice and job dedupe.
	kv, err := cache.NewCache(cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}

	var adviceCache coaching.AdviceCache = coaching.NewDocumentCache(store)
	if cfg.RedisURL != "" {
		adviceCache = coaching.NewCacheStore(kv)
	}

	var generator coaching.Generator
	if cfg.OpenAIKey != "" {
		generator = coaching.NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIModel)
	} else {
		log.Println("OPENAI_API_KEY not set, coaching uses rule based advice")
	}
	coachingService := coaching.NewService(adviceCache, generator, cfg.CoachingTimeout)

	coach := &coaching.DailyCoach{Summaries: repo, Service: coachingService}
	if cfg.SMTPEmail != "" && cfg.SMTPPassword != "" {
		sender := email.NewSender(cfg.SMTPEmail, cfg.SMTPPassword)
		if err := sender.Ping(); err != nil {
			log.Printf("email digests disabled: %v", err)
		} else {
			coach.Notify = sender.NotifyCoaching
		}
	}

	// Coaching jobs go through RabbitMQ when it is configured and run inline
	// otherwise.
	var dispatcher scheduler.Dispatcher = scheduler.DispatchFunc(coach.Handle)
	var stopConsumers context.CancelFunc
	if cfg.RabbitMQURL != "" {
		coachingQueue, err := queue.BuildCoachingQueue(cfg.RabbitMQURL, numCoachingProducers, cfg.CoachingConsumers, kv, coach)
		if err != nil {
			log.Fatal("error building coaching queue: ", err)
		}
		defer coachingQueue.Close()
		stopConsumers, _ = coachingQueue.StartConsumers(ctx)
		dispatcher = coachingQueue
	}

	daily := scheduler.NewDaily(repo, dispatcher, cfg.CoachingSchedule)
	if err := daily.Start(); err != nil {
		log.Fatal("error starting coaching scheduler: ", err)
	}

	srv := server.New(server.Deps{Repo: repo, Auth: authenticator, Coaching: coachingService})
	go func() {
		if err := srv.Start(cfg.ServerURL); err != nil {
			log.Fatal("server stopped: ", err)
		}
	}()

	// Setting up the signal interrupt handler to gracefully shutdown our server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	fmt.Println()
	fmt.Println(sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	<-daily.Stop().Done()
	if stopConsumers != nil {
		stopConsumers()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := kv.Disconnect(); err != nil {
		log.Printf("cache disconnect: %v", err)
	}
	if err := store.Disconnect(shutdownCtx); err != nil {
		log.Printf("store disconnect: %v", err)
	}
}
