package main

import (
	"context"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/hibiken/asynq"

	"lookbookapi/dbhelper"
	"lookbookapi/services"
	"lookbookapi/tasks"
)

func NewReportRefreshTask() *asynq.Task {
	return asynq.NewTask(tasks.TypeReportRefresh, []byte{})
}

func runScheduler() {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}, &asynq.SchedulerOpts{
		LogLevel: asynq.InfoLevel,
	})

	scheduled := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "0 9 * * 1", // 9:00 AM every Monday
			task: NewReportRefreshTask(),
			desc: "Weekly style report refresh",
		},
	}

	for _, t := range scheduled {
		entryID, err := scheduler.Register(t.cron, t.task)
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.desc, err)
		}
		log.Printf("Registered task '%s' with ID: %s, cron: %s", t.desc, entryID, t.cron)
	}

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func main() {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			"reports": 7,
			"default": 3,
		}},
	)
	generator := services.GoogleStyleGenerator{}
	app, err := firebase.NewApp(context.Background(), nil)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
		return
	}
	mux := asynq.NewServeMux()
	db := dbhelper.SetupDB()
	mux.HandleFunc(tasks.TypeStyleReport, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleStyleReportTask(ctx, t, db, generator, app)
	})
	mux.HandleFunc(tasks.TypeReportRefresh, func(ctx context.Context, t *asynq.Task) error {
		return tasks.ScheduledReportRefreshTask(ctx, t, db, generator, app)
	})

	go runScheduler()
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
