package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/minaorangina/fantan/config"
	"github.com/minaorangina/fantan/engine"
	"github.com/minaorangina/fantan/game"
	"github.com/minaorangina/fantan/players"
	"github.com/minaorangina/fantan/protocol"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	adv, err := cfg.NewAdvisor(logger)
	if err != nil {
		logger.Fatal("could not create advisor", zap.Error(err))
	}
	models, err := cfg.ModelList()
	if err != nil {
		logger.Fatal("could not read models", zap.Error(err))
	}
	model := models[0]

	human := players.NewCLIPlayer(players.NewID(), cfg.PlayerName, os.Stdin, os.Stdout)
	ge, err := engine.NewGameEngine(engine.GameEngineOpts{
		GameID:    players.NewID(),
		CreatorID: human.ID(),
		Config:    cfg.Engine(),
		Human:     game.Seat{ID: human.ID(), Name: human.Name(), IsHuman: true},
		Opponent:  game.Seat{ID: players.NewID(), Name: model.Name, AIModel: model.ID},
		Advisor:   adv,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("could not initialise a new game", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go ge.Listen(ctx)

	updates, unsubscribe := ge.Subscribe(human.ID())
	defer unsubscribe()

	err = human.Run(ctx, updates, func(msg protocol.InboundMessage) {
		ge.Receive(msg)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("game ended", zap.Error(err))
	}
}
