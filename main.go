package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/groupwarden/modbot/internal/bot"
	"github.com/groupwarden/modbot/internal/config"
	"github.com/groupwarden/modbot/internal/db/sqlite"
	"github.com/groupwarden/modbot/internal/event"
	adminhandlers "github.com/groupwarden/modbot/internal/handlers/admin"
	chathandlers "github.com/groupwarden/modbot/internal/handlers/chat"
	modhandlers "github.com/groupwarden/modbot/internal/handlers/moderation"
	"github.com/groupwarden/modbot/internal/infra"
	"github.com/groupwarden/modbot/internal/lifecycle"
	"github.com/groupwarden/modbot/internal/moderation"
	"github.com/groupwarden/modbot/internal/observability"
)

func main() {
	cfg := config.Get()
	log.SetFormatter(&config.MbFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := observability.Init(ctx); err != nil {
		log.WithField("error", err.Error()).Fatalln("cant initialize observability")
	}

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		log.WithField("error", err.Error()).Errorln("cant initialize bot api")
		time.Sleep(1 * time.Second)
		log.Fatalln("exiting")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	defer botAPI.StopReceivingUpdates()

	dbClient, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(cfg.DotPath), "bot.db")
	if err != nil {
		log.WithField("error", err.Error()).Fatalln("cant initialize storage")
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.WithField("error", err.Error()).Errorln("cant close storage")
		}
	}()

	classifier, err := newClassifier(cfg.Moderation.SignalsPath)
	if err != nil {
		log.WithField("error", err.Error()).Fatalln("cant initialize classifier")
	}

	policy := moderation.NewPolicy(cfg.Moderation, classifier)
	admins := bot.NewAdminCache(botAPI, cfg.Moderation.AdminCacheTTL)
	service := bot.NewService(botAPI, dbClient)

	bot.RegisterUpdateHandler("admin", adminhandlers.NewAdmin(service, policy, admins))
	bot.RegisterUpdateHandler("moderation", modhandlers.NewFilter(service, policy, admins))
	bot.RegisterUpdateHandler("greeter", chathandlers.NewGreeter(service))

	subscribeAuditDelivery(ctx, botAPI, cfg.AdminLogChatID)

	runtime := lifecycle.NewRuntime(
		observability.NewServer(cfg.MetricsAddr),
		event.GetWorker(),
	)
	if err := runtime.Start(ctx); err != nil {
		log.WithField("error", err.Error()).Fatalln("cant start runtime components")
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := runtime.Stop(stopCtx); err != nil {
			log.WithField("error", err.Error()).Errorln("cant stop runtime components")
		}
	}()

	infra.GoRecoverable(-1, "process_updates", func() {
		updateConfig := api.NewUpdate(0)
		updateConfig.Timeout = 60
		updateProcessor := bot.NewUpdateProcessor(service)

		g, gctx := errgroup.WithContext(ctx)
		updatesChan, errorsChan := bot.GetUpdatesChans(gctx, botAPI, updateConfig)
		g.Go(func() error {
			for {
				select {
				case err := <-errorsChan:
					return errors.WithMessage(err, "get updates")
				case update := <-updatesChan:
					if err := updateProcessor.Process(gctx, &update); err != nil {
						log.WithField("error", err.Error()).Errorln("cant process update")
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			log.WithField("error", err.Error()).Errorln("update loop stopped")
		}
	})

	log.Infoln("shutting down")
}

// subscribeAuditDelivery routes audit records to the admin log chat, or
// to the local log when no chat is configured. Failed deliveries stay on
// the bus and retry until the event expires.
func subscribeAuditDelivery(ctx context.Context, botAPI *api.BotAPI, adminLogChatID int64) {
	event.Subscribe(modhandlers.AuditEventType, func(ev event.Queueable) {
		auditEv, ok := ev.(*modhandlers.AuditEvent)
		if !ok {
			ev.Drop()
			return
		}
		if adminLogChatID == 0 {
			log.WithField("record", auditEv.Record.ID).Infoln(auditEv.Record.HTML())
			auditEv.Process()
			return
		}
		if err := bot.SendHTMLMessage(ctx, botAPI, adminLogChatID, auditEv.Record.HTML()); err != nil {
			log.WithField("error", err.Error()).WithField("record", auditEv.Record.ID).Errorln("cant deliver audit record")
			return
		}
		auditEv.Process()
	})
}

func newClassifier(signalsPath string) (*moderation.Classifier, error) {
	if signalsPath == "" {
		return moderation.NewDefaultClassifier()
	}
	raw, err := os.ReadFile(signalsPath)
	if err != nil {
		return nil, errors.WithMessage(err, "read signals file")
	}
	table, err := moderation.ParseSignalTable(raw)
	if err != nil {
		return nil, err
	}
	return moderation.NewClassifier(table)
}
