package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/jobs"
	"github.com/dai/shuttle/lock"
	"github.com/dai/shuttle/registry"
	"github.com/dai/shuttle/store"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "shuttle",
		Short:             "Operate shuttle job locks, in-flight records, and the manifest cache",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading SHUTTLE_* variables")
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.AddCommand(
		newKeyCmd(a),
		newLocksCmd(a),
		newActiveCmd(a),
		newCacheCmd(a),
	)
	return root
}

// ── key ─────────────────────────────────────────────

func newKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "key <job> [json-array]",
		Short: "Print the lock key for a job and its arguments",
		Example: `  shuttle key blob.import '[1, "abc", "config/locales/en.yml", 5, null]'
  shuttle key manifest.precompile '[5, "yaml"]'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			values, err := parseKeyArgs(raw)
			if err != nil {
				return err
			}
			key, err := jobkey.Encode(args[0], values...)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, key)
			return nil
		},
	}
}

// ── locks ───────────────────────────────────────────

func newLocksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locks",
		Short: "Inspect and release job locks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <key>...",
		Short: "Show the holder of one or more lock keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s store.Store) error {
				return a.inspectLocks(cmd.Context(), s, args)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "release <key> <execution-id>",
		Short: "Release a lock left behind by a killed worker",
		Long: `Release clears the lock only if the named execution still holds it, so
a lock that has since been taken by a newer execution is left alone.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			execID, err := id.ParseExecutionID(args[1])
			if err != nil {
				return err
			}
			key := jobkey.Key(args[0])
			return a.withStore(cmd.Context(), func(s store.Store) error {
				return a.releaseLock(cmd.Context(), s, key, execID)
			})
		},
	})

	return cmd
}

func (a *app) inspectLocks(ctx context.Context, s lock.Store, keys []string) error {
	held := make([]*lock.Lock, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		g.Go(func() error {
			l, err := s.Inspect(gctx, jobkey.Key(k))
			if errors.Is(err, shuttle.ErrLockNotHeld) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("inspect %s: %w", k, err)
			}
			held[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, k := range keys {
		l := held[i]
		switch {
		case l == nil:
			fmt.Fprintf(a.out, "%s\tfree\n", k)
		case l.ExpiresAt != nil:
			fmt.Fprintf(a.out, "%s\theld by %s\texpires %s\n", k, l.ExecutionID, l.ExpiresAt.UTC().Format(time.RFC3339))
		default:
			fmt.Fprintf(a.out, "%s\theld by %s\n", k, l.ExecutionID)
		}
	}
	return nil
}

func (a *app) releaseLock(ctx context.Context, s lock.Store, key jobkey.Key, execID id.ID) error {
	if err := s.Release(ctx, key, execID); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}

	l, err := s.Inspect(ctx, key)
	switch {
	case errors.Is(err, shuttle.ErrLockNotHeld):
		a.logger.Info("lock released by operator",
			slog.String("job_key", key.String()),
			slog.String("execution_id", execID.String()),
		)
		fmt.Fprintf(a.out, "%s\tfree\n", key)
		return nil
	case err != nil:
		return fmt.Errorf("inspect %s: %w", key, err)
	}

	fmt.Fprintf(a.out, "%s\theld by %s\n", key, l.ExecutionID)
	if l.ExecutionID != execID {
		return fmt.Errorf("%s is held by %s, not %s: %w", key, l.ExecutionID, execID, shuttle.ErrLockNotHeld)
	}
	return nil
}

// ── active ──────────────────────────────────────────

func newActiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "active",
		Short: "List and forget in-flight executions attributed to an owner",
	}

	ownerArgs := func(args []string) (registry.OwnerRef, error) {
		owner := registry.OwnerRef{Kind: args[0], ID: args[1]}
		if !owner.Valid() {
			return registry.OwnerRef{}, fmt.Errorf("%w: %q", shuttle.ErrInvalidOwner, owner.String())
		}
		return owner, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list <kind> <id>",
		Short:   "List execution ids in flight for an owner",
		Example: "  shuttle active list commit 42",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := ownerArgs(args)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s store.Store) error {
				ids, err := registry.New(s, registry.WithLogger(a.logger)).ListActive(cmd.Context(), owner)
				if err != nil {
					return err
				}
				for _, i := range ids {
					fmt.Fprintln(a.out, i)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "forget <kind> <id>",
		Short: "Drop every in-flight record of an owner, such as a deleted commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := ownerArgs(args)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s store.Store) error {
				return registry.New(s, registry.WithLogger(a.logger)).Forget(cmd.Context(), owner)
			})
		},
	})

	return cmd
}

// ── cache ───────────────────────────────────────────

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the precompiled manifest cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path <commit-id> <format>",
		Short: "Print where a commit's manifest is cached and whether it exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			commitID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("commit id %q: %w", args[0], err)
			}
			layout := jobs.ManifestLayout{Root: a.cfg.CacheRoot, Environment: a.cfg.Environment}
			path, ok, err := layout.Cached(commitID, args[1])
			if err != nil {
				return err
			}
			state := "missing"
			if ok {
				state = "cached"
			}
			fmt.Fprintf(a.out, "%s\t%s\n", path, state)
			return nil
		},
	})

	return cmd
}
