package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RaikyD/laundry-queue/internal/application"
	"github.com/RaikyD/laundry-queue/internal/config"
	"github.com/RaikyD/laundry-queue/internal/domain"
)

// withOfflineQueue loads the durable queue under the store lock, runs fn and
// waits for the resulting writes.
func withOfflineQueue(ctx context.Context, cfg *config.Config, fn func(svc *application.QueueService) error) error {
	if err := checkOfflineStorage(cfg); err != nil {
		return err
	}

	lock, err := acquireLock(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	svc, closeQueue, err := openOfflineQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeQueue()

	runErr := fn(svc)
	if err := svc.Flush(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// readOfflineQueue loads the durable queue without taking the store lock, so
// it works next to a running server. It never writes.
func readOfflineQueue(ctx context.Context, cfg *config.Config) (application.Snapshot, error) {
	if err := checkOfflineStorage(cfg); err != nil {
		return application.Snapshot{}, err
	}

	svc, closeQueue, err := openOfflineQueue(ctx, cfg)
	if err != nil {
		return application.Snapshot{}, err
	}
	defer closeQueue()

	return svc.Snapshot(), nil
}

func checkOfflineStorage(cfg *config.Config) error {
	if cfg.STORAGE == config.StorageMemory {
		return errors.New("offline commands need sqlite or postgres storage")
	}
	return nil
}

func openOfflineQueue(ctx context.Context, cfg *config.Config) (*application.QueueService, func(), error) {
	repo, closeRepo, err := openRepo(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	svc := application.NewQueueService(repo,
		application.WithDailyLimit(cfg.DAILY_LIMIT),
		application.WithStorageTimeout(cfg.STORAGE_TIMEOUT),
	)
	closeQueue := func() {
		svc.Close()
		closeRepo()
	}

	if _, err := svc.Restore(ctx); err != nil {
		closeQueue()
		return nil, nil, fmt.Errorf("load queue: %w", err)
	}
	return svc, closeQueue, nil
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME CLOTHES",
		Short: "Add a customer to the end of the queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("clothes count must be a number: %w", err)
			}
			return withOfflineQueue(cmd.Context(), cfg, func(svc *application.QueueService) error {
				o, err := svc.Add(args[0], count)
				if err != nil {
					return err
				}
				pos, _ := svc.Position(o.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d clothes) at position %d, ready %s\n",
					o.Name, o.ClothesCount, pos, formatDay(o.ReadyDate))
				fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\n", o.ID)
				return nil
			})
		},
	}
}

func newCompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Mark an order as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withOfflineQueue(cmd.Context(), cfg, func(svc *application.QueueService) error {
				o, err := svc.Complete(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %s (%d clothes)\n", o.Name, o.ClothesCount)
				return nil
			})
		},
	}
}

type listOutput struct {
	Stats     application.Stats `json:"stats"`
	Pending   []domain.Order    `json:"pending"`
	Completed []domain.Order    `json:"completed"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the pending queue and completed orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snap, err := readOfflineQueue(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out := listOutput{
				Stats:     snap.Stats,
				Pending:   snap.Pending,
				Completed: snap.Completed,
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			writeList(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete ALL orders (cannot be undone)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear all data without --yes")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withOfflineQueue(cmd.Context(), cfg, func(svc *application.QueueService) error {
				if err := svc.Clear(); err != nil {
					return fmt.Errorf("error clearing data: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All data cleared successfully!")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing every order")
	return cmd
}

func writeList(w io.Writer, out listOutput) {
	fmt.Fprintf(w, "Pending: %d  Total clothes: %d  Completed: %d  (daily limit %d)\n\n",
		out.Stats.Pending, out.Stats.TotalPendingClothes, out.Stats.Completed, out.Stats.DailyLimit)

	if len(out.Pending) == 0 {
		fmt.Fprintln(w, "No pending orders")
	} else {
		fmt.Fprintln(w, pendingTable(out.Pending))
	}

	if len(out.Completed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, completedTable(out.Completed))
	}
}
