package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"wadindex/internal/index"
	"wadindex/internal/logging"
	"wadindex/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the cache current as archives are added or removed",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			ix, err := ctx.newIndex()
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			if err := ix.Run(runCtx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (%d files indexed)\n", ix.Root(), ix.Len())

			w, err := watch.New(ix.Root(), logger)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			if err := w.Start(); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Stop()

			return consumeChanges(runCtx, ix, w.Changes, func(change watch.Change, entry *index.FileEntry) {
				if entry != nil {
					fmt.Fprintf(out, "%s %s (%s)\n", change.Kind, entry.Record.DisplayName(), change.Path)
					return
				}
				fmt.Fprintf(out, "%s %s\n", change.Kind, change.Path)
			}, logger)
		},
	}
}

// consumeChanges applies watcher changes to ix until ctx ends or the channel
// closes, saving the cache after each one.
func consumeChanges(ctx context.Context, ix *index.Index, changes <-chan watch.Change, report func(watch.Change, *index.FileEntry), logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			switch change.Kind {
			case watch.Added:
				entry, err := ix.AddFile(ctx, change.Path)
				if err != nil {
					logging.WarnWithContext(logger, "failed to index changed archive", "watch_add_failed",
						logging.String(logging.FieldPath, change.Path),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "the file may still be downloading or is not a valid archive"),
						logging.String(logging.FieldImpact, "the file stays unlisted until it changes again"))
					continue
				}
				report(change, &entry)
			case watch.Removed:
				if !ix.Forget(change.Path) {
					continue
				}
				report(change, nil)
			}
			_ = ix.Persist(ctx)
		}
	}
}
