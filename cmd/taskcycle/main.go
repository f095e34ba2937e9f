package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskcycle/internal/config"
	"taskcycle/internal/repository"
	"taskcycle/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	generator := service.NewGenerator(taskRepo)

	runPass := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		users, err := userRepo.ListAll(jobCtx)
		if err != nil {
			log.Printf("generation: list users: %v", err)
			return
		}
		for _, user := range users {
			created, err := generator.Generate(jobCtx, &user.ID, cfg.LookAheadDays)
			if err != nil {
				log.Printf("generation: user %d: %v", user.ID, err)
				continue
			}
			if len(created) > 0 {
				log.Printf("generation: user %d: %d new instances", user.ID, len(created))
			}
		}
	}

	scheduler := service.NewSchedulerService(time.UTC)
	if _, err := scheduler.ScheduleInterval(cfg.GenerationInterval, runPass); err != nil {
		log.Fatalf("schedule generation: %v", err)
	}
	if cfg.DailyPassTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DailyPassTime, runPass); err != nil {
			log.Fatalf("schedule daily pass: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Catch up immediately on boot rather than waiting a full interval.
	runPass()

	log.Println("taskcycle started.")
	<-ctx.Done()
	log.Println("Shutdown complete.")
}
