package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dedupe-go/internal/app"
	"dedupe-go/internal/config"
	"dedupe-go/internal/dedupe"
	"dedupe-go/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Scan", "Dupes").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// scanContext returns a context cancelled by SIGINT/SIGTERM, so an
// interrupted scan checkpoints and can be resumed.
func scanContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var rootCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Volume-aware file indexer and duplicate finder",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Generate a new install ID
		installID := uuid.New().String()

		cfg := config.NewConfig(installID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", installID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", cfg.InstallID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Workers:    %d\n", cfg.Scan.Workers)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan MOUNT_POINT",
	Short: "Index a mounted volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subPath, _ := cmd.Flags().GetString("path")

		a, err := newApp("Scan")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := scanContext()
		defer stop()

		report, err := a.Service().Scan(ctx, args[0], subPath)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		printScanReport(report)
		return nil
	},
}

// resume command
var resumeCmd = &cobra.Command{
	Use:   "resume SESSION_ID MOUNT_POINT",
	Short: "Resume an interrupted scan",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sessionID int64
		if _, err := fmt.Sscanf(args[0], "%d", &sessionID); err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		a, err := newApp("Resume")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := scanContext()
		defer stop()

		report, err := a.Service().ResumeSession(ctx, sessionID, args[1])
		if err != nil {
			return fmt.Errorf("resume failed: %w", err)
		}

		printScanReport(report)
		return nil
	},
}

func printScanReport(r *dedupe.ScanReport) {
	verb := "Scanned"
	if r.Resumed {
		verb = "Resumed scan of"
	}
	fmt.Printf("%s %s (uuid %s)\n", verb, r.Volume.Label, r.Volume.UUID)

	s := r.Session
	fmt.Printf("Session #%d: %s\n", s.ID, s.Status)
	fmt.Printf("  seen:    %d\n", s.FilesSeen)
	fmt.Printf("  hashed:  %d\n", s.FilesHashed)
	fmt.Printf("  added:   %d\n", s.FilesAdded)
	fmt.Printf("  updated: %d\n", s.FilesUpdated)
	fmt.Printf("  failed:  %d\n", s.FilesFailed)
	if r.Cancelled {
		fmt.Printf("Interrupted; resume with: dedupe resume %d MOUNT_POINT\n", s.ID)
	}
	if s.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", s.ErrorMessage)
	}
}

// volumes command
var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "Manage indexed volumes",
}

var volumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed volumes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListVolumes")
		if err != nil {
			return err
		}
		defer a.Close()

		volumes, err := a.Service().ListVolumes()
		if err != nil {
			return err
		}

		if len(volumes) == 0 {
			fmt.Println("No volumes indexed.")
			return nil
		}

		for _, v := range volumes {
			kind := "external"
			if v.IsInternal {
				kind = "internal"
			}
			mount := v.LastMountPoint
			if mount == "" {
				mount = "-"
			}
			fmt.Printf("#%d  %-20s  %s  %-8s  %s  %s  at %s  last seen %s\n",
				v.ID,
				v.Label,
				v.UUID,
				v.Filesystem,
				kind,
				formatBytes(v.TotalSizeBytes),
				mount,
				v.LastSeenAt.Format("2006-01-02"),
			)
		}
		return nil
	},
}

var volumesRmCmd = &cobra.Command{
	Use:   "rm VOLUME",
	Short: "Forget a volume and all its indexed files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ForgetVolume")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().ForgetVolume(args[0]); err != nil {
			return err
		}
		fmt.Printf("Forgot volume %s\n", args[0])
		return nil
	},
}

// volume path exclusions
var excludeCmd = &cobra.Command{
	Use:   "exclude",
	Short: "Manage per-volume path exclusions",
}

var excludeAddCmd = &cobra.Command{
	Use:   "add VOLUME PATH",
	Short: "Exclude a volume-relative path from scans",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ExcludePath")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().ExcludePath(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Excluded %s on volume %s\n", args[1], args[0])
		return nil
	},
}

var excludeRmCmd = &cobra.Command{
	Use:   "rm VOLUME PATH",
	Short: "Remove a path exclusion",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("IncludePath")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().IncludePath(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Removed exclusion %s on volume %s\n", args[1], args[0])
		return nil
	},
}

var excludeListCmd = &cobra.Command{
	Use:   "list VOLUME",
	Short: "List path exclusions for a volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListExcludedPaths")
		if err != nil {
			return err
		}
		defer a.Close()

		paths, err := a.Service().ListExcludedPaths(args[0])
		if err != nil {
			return err
		}

		if len(paths) == 0 {
			fmt.Println("No exclusions.")
			return nil
		}
		for _, p := range paths {
			fmt.Println(p.RelativePath)
		}
		return nil
	},
}

// sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "View scan session history",
	RunE: func(cmd *cobra.Command, args []string) error {
		volumeRef, _ := cmd.Flags().GetString("volume")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ListSessions")
		if err != nil {
			return err
		}
		defer a.Close()

		sessions, err := a.Service().ListSessions(volumeRef, limit)
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No scan sessions recorded.")
			return nil
		}

		for _, s := range sessions {
			duration := ""
			if s.FinishedAt != nil {
				duration = s.FinishedAt.Sub(s.StartedAt).Truncate(time.Millisecond).String()
			}
			root := s.RootPath
			if root == "" {
				root = "/"
			}
			fmt.Printf("#%d  vol %d  %-12s  %s  %-10s  seen=%d hashed=%d failed=%d  %s\n",
				s.ID,
				s.VolumeID,
				s.Status,
				s.StartedAt.Format("2006-01-02 15:04:05"),
				root,
				s.FilesSeen,
				s.FilesHashed,
				s.FilesFailed,
				duration,
			)
		}
		return nil
	},
}

var sessionsFailuresCmd = &cobra.Command{
	Use:   "failures SESSION_ID",
	Short: "List per-file failures of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sessionID int64
		if _, err := fmt.Sscanf(args[0], "%d", &sessionID); err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		a, err := newApp("SessionFailures")
		if err != nil {
			return err
		}
		defer a.Close()

		failures, err := a.Service().SessionFailures(sessionID)
		if err != nil {
			return err
		}

		if len(failures) == 0 {
			fmt.Println("No failures.")
			return nil
		}
		for _, f := range failures {
			fmt.Printf("%s\t%s\n", f.RelativePath, f.Error)
		}
		return nil
	},
}

// dupes command
var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Find duplicate files",
	RunE: func(cmd *cobra.Command, args []string) error {
		hashType, _ := cmd.Flags().GetString("hash-type")
		policy, _ := cmd.Flags().GetString("policy")
		volumes, _ := cmd.Flags().GetStringSlice("volumes")
		crossOnly, _ := cmd.Flags().GetBool("cross-volume")
		trash, _ := cmd.Flags().GetBool("trash")
		mount, _ := cmd.Flags().GetString("mount")

		if trash && mount == "" {
			return fmt.Errorf("--trash requires --mount to locate files on disk")
		}

		a, err := newApp("Dupes")
		if err != nil {
			return err
		}
		defer a.Close()

		groups, stats, err := a.Service().FindDuplicates(volumes, hashType, dedupe.KeepPolicy(policy), crossOnly)
		if err != nil {
			return err
		}

		if len(groups) == 0 {
			fmt.Println("No duplicates found.")
			return nil
		}

		var discard []*dedupe.FileFingerprint
		for _, g := range groups {
			fmt.Printf("%s %s (%s)\n", g.HashType, g.HashValue, g.Family)
			for _, m := range g.Members {
				marker := "  drop"
				if m.Keep {
					marker = "  keep"
				} else {
					fp := m.FileFingerprint
					discard = append(discard, &fp)
				}
				fmt.Printf("%s  vol %d  %s  %s\n", marker, m.VolumeID, formatBytes(m.SizeBytes), m.RelativePath)
			}
		}
		fmt.Printf("\n%d group(s), %d duplicate file(s), %s reclaimable\n",
			stats.Groups, stats.DuplicateFiles, formatBytes(stats.WastedBytes))

		if trash {
			n, err := a.Service().TrashFiles(mount, discard)
			if err != nil {
				return fmt.Errorf("trashing duplicates: %w", err)
			}
			fmt.Printf("Moved %d file(s) to trash\n", n)
		}
		return nil
	},
}

// diff command
var diffCmd = &cobra.Command{
	Use:   "diff VOLUME_A VOLUME_B",
	Short: "List files on B whose content is missing from A",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashType, _ := cmd.Flags().GetString("hash-type")
		prefix, _ := cmd.Flags().GetString("prefix")

		a, err := newApp("Diff")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.Service().Difference(args[0], args[1], hashType, prefix)
		if err != nil {
			return err
		}
		printFingerprints(files)
		return nil
	},
}

// intersect command
var intersectCmd = &cobra.Command{
	Use:   "intersect VOLUME_A VOLUME_B",
	Short: "List files on B whose content also exists on A",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashType, _ := cmd.Flags().GetString("hash-type")
		prefix, _ := cmd.Flags().GetString("prefix")

		a, err := newApp("Intersect")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.Service().Intersection(args[0], args[1], hashType, prefix)
		if err != nil {
			return err
		}
		printFingerprints(files)
		return nil
	},
}

func printFingerprints(files []*dedupe.FileFingerprint) {
	if len(files) == 0 {
		fmt.Println("No files.")
		return
	}
	var total int64
	for _, f := range files {
		fmt.Printf("%s  %s\n", formatBytes(f.SizeBytes), f.RelativePath)
		total += f.SizeBytes
	}
	fmt.Printf("\n%d file(s), %s\n", len(files), formatBytes(total))
}

// move command
var moveCmd = &cobra.Command{
	Use:   "move SRC_MOUNT DEST_MOUNT",
	Short: "Move files absent from DEST into its date-directory layout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashType, _ := cmd.Flags().GetString("hash-type")
		prefix, _ := cmd.Flags().GetString("prefix")
		root, _ := cmd.Flags().GetString("root")

		a, err := newApp("Move")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Service().MoveNewFiles(args[0], args[1], hashType, prefix, root)
		if err != nil {
			return err
		}

		for _, m := range result.Moved {
			fmt.Printf("moved  %s -> %s\n", m.Source, m.Target)
		}
		for _, m := range result.Failed {
			fmt.Printf("FAILED %s: %v\n", m.Source, m.Err)
		}
		fmt.Printf("\n%d moved, %d failed\n", len(result.Moved), len(result.Failed))
		return nil
	},
}

// ext command
var extCmd = &cobra.Command{
	Use:   "ext",
	Short: "Manage extension policy",
}

var extListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extension overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListCustomExtensions")
		if err != nil {
			return err
		}
		defer a.Close()

		exts, err := a.Service().ListCustomExtensions()
		if err != nil {
			return err
		}

		if len(exts) == 0 {
			fmt.Println("No overrides.")
			return nil
		}
		for _, e := range exts {
			if e.Disposition == model.DispositionInclude {
				fmt.Printf("%-8s  include  %s\n", e.Extension, e.Category)
			} else {
				fmt.Printf("%-8s  exclude\n", e.Extension)
			}
		}
		return nil
	},
}

var extUnknownCmd = &cobra.Command{
	Use:   "unknown",
	Short: "List extensions seen during scans with no policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListUnknownExtensions")
		if err != nil {
			return err
		}
		defer a.Close()

		exts, err := a.Service().ListUnknownExtensions()
		if err != nil {
			return err
		}

		if len(exts) == 0 {
			fmt.Println("No unknown extensions.")
			return nil
		}
		for _, e := range exts {
			fmt.Printf("%-8s  %6d occurrence(s)  first seen %s\n",
				e.Extension, e.Occurrences, e.FirstSeenAt.Format("2006-01-02"))
		}
		return nil
	},
}

var extSamplesCmd = &cobra.Command{
	Use:   "samples EXTENSION",
	Short: "Show where an unknown extension was seen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ExtensionSamples")
		if err != nil {
			return err
		}
		defer a.Close()

		samples, err := a.Service().ExtensionSamples(args[0])
		if err != nil {
			return err
		}

		if len(samples) == 0 {
			fmt.Println("No samples recorded.")
			return nil
		}
		for _, s := range samples {
			fmt.Printf("vol %d  %-40s  %d file(s)\n", s.VolumeID, s.Directory, s.FileCount)
		}
		return nil
	},
}

var extIncludeCmd = &cobra.Command{
	Use:   "include EXTENSION",
	Short: "Include an extension in future scans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		a, err := newApp("IncludeExtension")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().IncludeExtension(args[0], category); err != nil {
			return err
		}
		fmt.Printf("Including .%s\n", args[0])
		return nil
	},
}

var extExcludeCmd = &cobra.Command{
	Use:   "exclude EXTENSION",
	Short: "Exclude an extension from future scans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ExcludeExtension")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().ExcludeExtension(args[0]); err != nil {
			return err
		}
		fmt.Printf("Excluding .%s\n", args[0])
		return nil
	},
}

var extResetCmd = &cobra.Command{
	Use:   "reset EXTENSION",
	Short: "Remove an extension override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ResetExtension")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().ResetExtension(args[0]); err != nil {
			return err
		}
		fmt.Printf("Reset .%s to builtin policy\n", args[0])
		return nil
	},
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// volumes subcommands
	volumesCmd.AddCommand(volumesListCmd)
	volumesCmd.AddCommand(volumesRmCmd)
	volumesCmd.AddCommand(excludeCmd)
	excludeCmd.AddCommand(excludeAddCmd)
	excludeCmd.AddCommand(excludeRmCmd)
	excludeCmd.AddCommand(excludeListCmd)

	// sessions subcommands
	sessionsCmd.AddCommand(sessionsFailuresCmd)
	sessionsCmd.Flags().String("volume", "", "Restrict to one volume (uuid or mount point)")
	sessionsCmd.Flags().IntP("limit", "n", 50, "Maximum number of sessions to show")

	// ext subcommands
	extCmd.AddCommand(extListCmd)
	extCmd.AddCommand(extUnknownCmd)
	extCmd.AddCommand(extSamplesCmd)
	extCmd.AddCommand(extIncludeCmd)
	extCmd.AddCommand(extExcludeCmd)
	extCmd.AddCommand(extResetCmd)
	extIncludeCmd.Flags().String("category", "", "Category for the included extension (image, video, audio, document)")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("path", "", "Volume-relative subtree to scan")
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(volumesCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(dupesCmd)
	dupesCmd.Flags().String("hash-type", model.HashExactMD5, "Hash type: exact_md5, pixel_md5 or perceptual_phash")
	dupesCmd.Flags().String("policy", string(dedupe.KeepLargest), "Keep policy: keep_largest or keep_shortest_name")
	dupesCmd.Flags().StringSlice("volumes", nil, "Restrict to these volumes (uuid or mount point)")
	dupesCmd.Flags().Bool("cross-volume", false, "Only groups spanning multiple volumes")
	dupesCmd.Flags().Bool("trash", false, "Move non-kept duplicates to the trash")
	dupesCmd.Flags().String("mount", "", "Mount point of the volume holding the duplicates (required with --trash)")
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().String("hash-type", model.HashExactMD5, "Hash type to compare by")
	diffCmd.Flags().String("prefix", "", "Restrict to a volume-relative path prefix")
	rootCmd.AddCommand(intersectCmd)
	intersectCmd.Flags().String("hash-type", model.HashExactMD5, "Hash type to compare by")
	intersectCmd.Flags().String("prefix", "", "Restrict to a volume-relative path prefix")
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().String("hash-type", model.HashExactMD5, "Hash type to compare by")
	moveCmd.Flags().String("prefix", "", "Restrict the source to a volume-relative path prefix")
	moveCmd.Flags().String("root", "", "Destination root directory, relative to the mount point")
	rootCmd.AddCommand(extCmd)
}
