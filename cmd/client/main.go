package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophchat/internal/buildinfo"
	"github.com/dmitrijs2005/gophchat/internal/client/cli"
	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	conn, err := client.Dial(dialCtx, cfg.ServerAddr, cfg.MaxFrameSize)
	cancel()
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("Connected to %s (type /help for commands)\n", cfg.ServerAddr)

	if err := cli.NewApp(conn, os.Stdout).Run(ctx, os.Stdin); err != nil {
		log.Fatalf("%v", err)
	}
}
