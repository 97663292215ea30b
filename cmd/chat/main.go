// Command chat drives the assistant services in-process from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"study-assistant-be/internal/bootstrap"
	"study-assistant-be/internal/config"
	"study-assistant-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
)

// app is built lazily so --help works without a database.
type app struct {
	db        *gorm.DB
	container *bootstrap.Container
}

func (a *app) open() error {
	cfg := config.Load()
	db, err := database.NewGormDB(database.Options{DSN: cfg.Database.Connection, Debug: cfg.Database.Debug})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	// the terminal client does not watch the corpus
	cfg.Corpus.Watch = false
	container, err := bootstrap.NewContainer(db, cfg)
	if err != nil {
		return err
	}
	a.db, a.container = db, container
	return nil
}

func (a *app) close() {
	if a.container != nil {
		a.container.Close()
	}
	if a.db != nil {
		database.Close(a.db)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.close()

	root := &cobra.Command{
		Use:           "chat",
		Short:         "Study assistant terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}
	root.AddCommand(
		assistantsCmd(a),
		createCmd(a),
		addCmd(a),
		deleteCmd(a),
		talkCmd(a),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		a.close()
		os.Exit(1)
	}
}
