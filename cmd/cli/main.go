// Package main provides the etf-lens command line tool.
//
//	etf-cli analyze voo
//	etf-cli visual --prompt "semiconductor ETFs" --size 2K --ticker SMH --thumbnail 320
//	etf-cli chat
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/app"
	"github.com/fleveque/etf-lens/internal/config"
	"github.com/fleveque/etf-lens/internal/imaging"
	"github.com/fleveque/etf-lens/internal/model"
	"github.com/fleveque/etf-lens/internal/storage"
	"github.com/fleveque/etf-lens/internal/visual"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd builds the command tree:
// etf-cli analyze <ticker>
// etf-cli visual --prompt ...
// etf-cli chat
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "etf-cli",
		Short:        "ETF analysis tools",
		SilenceUsage: true,
	}

	root.AddCommand(analyzeCmd(), visualCmd(), chatCmd())
	return root
}

// env is what every command needs.
type env struct {
	cfg      *config.Config
	services *app.App
}

// setup loads config and services. The CLI always logs in development mode to stderr.
func setup() (*env, func(), error) {
	cfg, err := config.Load(os.Getenv("ETF_CONFIG_PATH"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	services, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		services.Close()
		_ = logger.Sync()
	}
	return &env{cfg: cfg, services: services}, cleanup, nil
}

// signalContext is cancelled on Ctrl+C so an in-flight model call stops.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <ticker>",
		Short: "Fetch live data for an ETF and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := model.NormalizeTicker(args[0])
			if ticker == "" {
				return errors.New("a ticker is required")
			}

			e, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext()
			defer cancel()

			data, err := e.services.Analysis.Analyze(ctx, ticker)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", ticker, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
}

func visualCmd() *cobra.Command {
	var (
		prompt    string
		size      string
		ticker    string
		outDir    string
		thumbnail int
		bg        string
		force     bool
		clean     bool
	)

	cmd := &cobra.Command{
		Use:   "visual",
		Short: "Generate a visual and write it as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			imageSize, err := model.ParseImageSize(size)
			if err != nil {
				return err
			}
			if strings.TrimSpace(prompt) == "" {
				return errors.New("--prompt is required")
			}

			e, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			if outDir == "" {
				outDir = e.cfg.Storage.ExportDir
			}
			fs, err := storage.NewFileSystem(outDir)
			if err != nil {
				return err
			}
			// Checked before generating so a refused export costs no model call.
			if err := prepareExport(fs, ticker, string(imageSize), force, clean); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			uri, ok := e.services.Visuals.Generate(ctx, prompt, imageSize)
			if !ok {
				return errors.New("no image was generated")
			}
			data, err := visual.DecodeDataURI(uri)
			if err != nil {
				return err
			}
			if bg != "" {
				if data, err = imaging.ApplyBackground(data, bg); err != nil {
					return fmt.Errorf("applying background: %w", err)
				}
			}

			paths, err := imaging.NewImageProcessor(fs).Export(ticker, string(imageSize), data, thumbnail)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "Description of the visual")
	cmd.Flags().StringVar(&size, "size", string(model.ImageSize1K), "Image size: 1K, 2K or 4K")
	cmd.Flags().StringVar(&ticker, "ticker", "visual", "Directory name the image is stored under")
	cmd.Flags().StringVar(&outDir, "out", "", "Export directory (default storage.export_dir)")
	cmd.Flags().IntVar(&thumbnail, "thumbnail", 0, "Also write a thumbnail this many pixels wide")
	cmd.Flags().StringVar(&bg, "bg", "", "Flatten transparency onto this hex color")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing export of the same size")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove every earlier export of the ticker first")
	return cmd
}

// errExportExists is returned when an export would overwrite an earlier one.
var errExportExists = errors.New("export already exists; use --force to overwrite or --clean to start over")

// prepareExport clears the ticker directory when clean is set, and refuses to
// overwrite an existing export unless force is set.
func prepareExport(fs *storage.FileSystem, ticker, name string, force, clean bool) error {
	if clean {
		if err := fs.DeleteTicker(ticker); err != nil {
			return fmt.Errorf("cleaning exports of %s: %w", ticker, err)
		}
		return nil
	}
	if !force && fs.Exists(ticker, name) {
		return fmt.Errorf("%s: %w", fs.VisualPath(ticker, name), errExportExists)
	}
	return nil
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the analyst; one message per line on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext()
			defer cancel()

			return runChat(ctx, e.services.Chat, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// chatSender is the part of the chat service the REPL uses.
type chatSender interface {
	Create() string
	Send(ctx context.Context, sessionID, content string) ([]model.ChatMessage, error)
}

// runChat reads one message per line and prints each assistant reply.
// Blank lines are skipped.
func runChat(ctx context.Context, svc chatSender, in io.Reader, out io.Writer) error {
	id := svc.Create()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		messages, err := svc.Send(ctx, id, line)
		if err != nil {
			return err
		}
		if n := len(messages); n > 0 && messages[n-1].Role == model.RoleAssistant {
			fmt.Fprintf(out, "> %s\n", messages[n-1].Content)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}
