package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/application/usecase"
	"github.com/kuwago/lending/internal/infrastructure/config"
	"github.com/kuwago/lending/internal/infrastructure/kafka"
	"github.com/kuwago/lending/internal/infrastructure/messaging"
	pgstore "github.com/kuwago/lending/internal/infrastructure/postgres"
	pkgkafka "github.com/kuwago/lending/pkg/kafka"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

func withPool(ctx context.Context, fn func(*pgxpool.Pool) error) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pkgpostgres.NewPool(connectCtx, dbConfig(config.Load()))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(pool)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reportCmd() *cobra.Command {
	var borrowerID string

	cmd := &cobra.Command{
		Use:   "report <schedule-id>",
		Short: "Print the reconciled report of a payment schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(pool *pgxpool.Pool) error {
				repos := pgstore.Repositories(pool)
				report, err := usecase.NewGetScheduleReport(repos.Schedules, repos.Payments).
					Execute(cmd.Context(), dto.GetScheduleReportRequest{ScheduleID: args[0], BorrowerID: borrowerID})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().StringVar(&borrowerID, "borrower", "", "owning borrower id")
	_ = cmd.MarkFlagRequired("borrower")
	return cmd
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <borrower-id>",
		Short: "Print a borrower's credit score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(pool *pgxpool.Pool) error {
				score, err := usecase.NewGetCreditScore(pgstore.NewCreditScoreRepo(pool)).
					Execute(cmd.Context(), dto.GetCreditScoreRequest{BorrowerID: args[0]})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), score)
			})
		},
	}
}

func relayCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Drain the event outbox to Kafka once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			producer, err := pkgkafka.NewProducer(pkgkafka.Config{Brokers: cfg.Kafka.Brokers, ClientID: "lendingctl"})
			if err != nil {
				return err
			}
			defer producer.Close()

			return withPool(cmd.Context(), func(pool *pgxpool.Pool) error {
				relay := messaging.NewOutboxRelay(pgstore.NewOutboxRepo(pool),
					kafka.NewEntryPublisher(producer, cfg.Kafka.EventsTopic, slog.Default()),
					batchSize, nil, slog.Default())
				n, err := relay.Drain(cmd.Context())
				if err != nil {
					return fmt.Errorf("relayed %d entries before failing: %w", n, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "relayed %d entries\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch", 100, "entries per publish batch")
	return cmd
}
