package main

import (
	"flag"

	"github.com/hoffination/open-social-server/internal/config"
	"github.com/hoffination/open-social-server/internal/handler"
	"github.com/hoffination/open-social-server/internal/pkg"
	"github.com/hoffination/open-social-server/internal/repository/mysql"
	redisrepo "github.com/hoffination/open-social-server/internal/repository/redis"
	"github.com/hoffination/open-social-server/internal/router"
	"github.com/hoffination/open-social-server/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	log := pkg.NewLogger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}

	db, err := mysql.InitDB(cfg.MySQL.DSN)
	if err != nil {
		log.WithError(err).Fatal("connecting to mysql")
	}
	rdb, err := redisrepo.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Fatal("connecting to redis")
	}
	producer, err := pkg.NewKafkaProducer(pkg.KafkaProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	if err != nil {
		log.WithError(err).Fatal("connecting to kafka")
	}
	defer producer.Close()

	contentRepo := mysql.NewContentRepo(db)
	inviteRepo := mysql.NewInviteRepo(db)
	userRepo := mysql.NewUserRepo(db)
	noteRepo := mysql.NewNotificationRepo(db)
	sessionRepo := redisrepo.NewSessionRepo(rdb)
	metricRepo := redisrepo.NewMetricRepo(rdb)

	notifier := service.NewNotifyService(noteRepo, producer, log)
	floors := service.QuotaFloors{
		Post:  cfg.Feed.PostFloor,
		Event: cfg.Feed.EventFloor,
		Rally: cfg.Feed.RallyFloor,
	}
	feedSvc := service.NewFeedService(contentRepo, inviteRepo, userRepo, metricRepo, floors, cfg.Feed.PageSize, log)
	rallySvc := service.NewRallyService(contentRepo, inviteRepo, userRepo, notifier, metricRepo, log)
	contentSvc := service.NewContentService(contentRepo, userRepo, notifier, metricRepo, log)

	tokens := pkg.NewTokenMaker(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL)
	r := router.SetupRouter(router.Handlers{
		Auth:    handler.NewAuthHandler(tokens, sessionRepo),
		Feed:    handler.NewFeedHandler(feedSvc),
		Content: handler.NewContentHandler(contentSvc),
		Rally:   handler.NewRallyHandler(rallySvc),
	}, tokens, sessionRepo, userRepo)

	log.WithField("addr", cfg.Server.Addr).Info("server starting")
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
