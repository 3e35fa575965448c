package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticket-bot/bot"
	"ticket-bot/config"
	"ticket-bot/handlers"
	"ticket-bot/lang"
	"ticket-bot/notify"
	"ticket-bot/store"
	"ticket-bot/ticket"
	"ticket-bot/web"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to config file")
	cleanup := flag.Bool("cleanup", false, "Remove slash commands on shutdown")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Discord.Token == "" {
		log.Fatal("Set your bot token in config.json → discord.token or the DISCORD_TOKEN environment variable")
	}

	lang.Load(cfg.Lang.Path)

	st, err := store.New(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialise store: %v", err)
	}
	defer st.Close()

	var notifier *notify.Publisher
	if cfg.AMQP.Enabled {
		notifier, err = notify.New(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Printf("WARNING: AMQP connection failed (%v). Lifecycle events disabled.", err)
		} else {
			defer notifier.Close()
			log.Printf("[notify] Publishing lifecycle events to exchange %q", cfg.AMQP.Exchange)
		}
	}

	engine := ticket.NewEngine(st, ticket.Policy{
		RequireClaimToClose: *cfg.Tickets.RequireClaimToClose,
		MaxOpenPerUser:      cfg.Tickets.MaxOpenPerUser,
		DeleteGrace:         time.Duration(cfg.Tickets.DeleteGraceSeconds) * time.Second,
	})

	b, err := bot.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	h := handlers.New(cfg, st, engine, notifier)
	h.Register(b.Session)

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}
	defer b.Stop()

	registered := b.RegisterCommands(h.Commands())

	go web.Serve(cfg.Web.Addr)

	log.Println("Bot is running. Press Ctrl+C to exit.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	if *cleanup {
		b.CleanupCommands(registered)
	}
}
