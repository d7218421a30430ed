package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vireodata/vireo/pkg/bridge"
	"github.com/vireodata/vireo/pkg/compression"
	"github.com/vireodata/vireo/pkg/handle"
	"github.com/vireodata/vireo/pkg/logger"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "vireo",
		Short: "Vireo - columnar dataframe boundary toolkit",
		Long: `Vireo exposes a columnar dataframe engine behind a handle-based call
surface. The CLI converts and inspects dataframe files through the same
boundary operations a host runtime would use.`,
	}

	root.PersistentFlags().String("config", "", "config file (default vireo.yaml in cwd)")
	root.PersistentFlags().String("log-level", "info", "log level (debug/info/warn/error)")
	root.PersistentFlags().Int("heavy-workers", 0, "heavy pool workers (0 = GOMAXPROCS)")
	root.PersistentFlags().Int("heavy-queue", 0, "heavy pool queue size (0 = 2x workers)")

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("VIREO")
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		viper.AutomaticEnv()
		_ = viper.BindPFlags(root.PersistentFlags())

		if cfgFile := viper.GetString("config"); cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.SetConfigName("vireo")
			viper.AddConfigPath(".")
		}
		if err := viper.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				fmt.Fprintf(os.Stderr, "config: %v\n", err)
				os.Exit(1)
			}
		}

		if err := logger.Init(logger.Config{
			Level:    viper.GetString("log-level"),
			Encoding: "json",
		}); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Vireo v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newConvertCmd())
	root.AddCommand(newInspectCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newBridge() *bridge.Bridge {
	return bridge.New(bridge.Config{
		HeavyWorkers: viper.GetInt("heavy-workers"),
		HeavyQueue:   viper.GetInt("heavy-queue"),
	})
}

func newConvertCmd() *cobra.Command {
	var (
		inFormat, outFormat string
		inCompression       string
		outCompression      string
		level               int
		noHeader            bool
		timeout             time.Duration
	)
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a dataframe file between formats",
		Long: `Convert reads a dataframe file (csv, parquet, ipc, ipcstream, ndjson)
and writes it in another format. CSV and NDJSON accept stream compression on
both sides; Parquet compression is a column codec validated per algorithm.

Example:
  vireo convert data.csv data.parquet --to parquet --out-compression zstd --level 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := newBridge()
			defer b.Close()
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			inAlgo, err := compression.ParseAlgorithm(inCompression)
			if err != nil {
				return err
			}
			outChoice := compression.Choice{Algorithm: compression.Uncompressed}
			if outCompression != "" {
				algo, err := compression.ParseAlgorithm(outCompression)
				if err != nil {
					return err
				}
				outChoice.Algorithm = algo
				if cmd.Flags().Changed("level") {
					outChoice.Level = &level
				}
			}

			h, err := loadFrame(ctx, b, args[0], inFormat, inAlgo)
			if err != nil {
				return err
			}
			defer h.Release()

			return dumpFrame(ctx, b, h, args[1], outFormat, outChoice, !noHeader)
		},
	}
	cmd.Flags().StringVar(&inFormat, "from", "", "input format (default from extension)")
	cmd.Flags().StringVar(&outFormat, "to", "", "output format (default from extension)")
	cmd.Flags().StringVar(&inCompression, "in-compression", "uncompressed", "input stream compression")
	cmd.Flags().StringVar(&outCompression, "out-compression", "", "output compression algorithm")
	cmd.Flags().IntVar(&level, "level", 0, "output compression level")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the CSV header row")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "conversion deadline")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var (
		format        string
		inCompression string
		headRows      int
		timeout       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Print a dataframe file's shape, schema and leading rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := newBridge()
			defer b.Close()
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			algo, err := compression.ParseAlgorithm(inCompression)
			if err != nil {
				return err
			}
			h, err := loadFrame(ctx, b, args[0], format, algo)
			if err != nil {
				return err
			}
			defer h.Release()

			rows, cols, err := b.DFShape(h)
			if err != nil {
				return err
			}
			names, err := b.DFNames(h)
			if err != nil {
				return err
			}
			dtypes, err := b.DFDTypes(h)
			if err != nil {
				return err
			}
			nulls, err := b.DFNullCounts(h)
			if err != nil {
				return err
			}

			fmt.Printf("shape: %d rows x %d cols\n", rows, cols)
			for i, name := range names {
				fmt.Printf("  %-24s %-16s %d nulls\n", name, dtypes[i], nulls[i])
			}

			if headRows > 0 {
				head, err := b.DFHead(h, headRows)
				if err != nil {
					return err
				}
				defer head.Release()
				fmt.Println()
				return b.DFDumpNDJSON(ctx, head, os.Stdout,
					compression.Choice{Algorithm: compression.Uncompressed})
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "input format (default from extension)")
	cmd.Flags().StringVar(&inCompression, "in-compression", "uncompressed", "input stream compression")
	cmd.Flags().IntVar(&headRows, "head", 5, "leading rows to print as NDJSON (0 to skip)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "inspection deadline")
	return cmd
}

func detectFormat(path, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	switch {
	case strings.HasSuffix(path, ".csv"), strings.HasSuffix(path, ".csv.gz"):
		return "csv", nil
	case strings.HasSuffix(path, ".parquet"):
		return "parquet", nil
	case strings.HasSuffix(path, ".arrow"), strings.HasSuffix(path, ".feather"), strings.HasSuffix(path, ".ipc"):
		return "ipc", nil
	case strings.HasSuffix(path, ".arrows"):
		return "ipcstream", nil
	case strings.HasSuffix(path, ".ndjson"), strings.HasSuffix(path, ".jsonl"):
		return "ndjson", nil
	default:
		return "", fmt.Errorf("cannot infer format of %q, pass --from/--to/--format", path)
	}
}

func loadFrame(ctx context.Context, b *bridge.Bridge, path, format string, algo compression.Algorithm) (*handle.Handle, error) {
	format, err := detectFormat(path, format)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	logger.Get().Info("loading dataframe",
		zap.String("path", path), zap.String("format", format))

	switch format {
	case "csv":
		return b.DFFromCSV(ctx, f, algo)
	case "parquet":
		return b.DFFromParquet(ctx, f)
	case "ipc":
		return b.DFFromIPC(ctx, f)
	case "ipcstream":
		return b.DFFromIPCStream(ctx, f)
	case "ndjson":
		return b.DFFromNDJSON(ctx, f, algo)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func dumpFrame(ctx context.Context, b *bridge.Bridge, h *handle.Handle, path, format string, choice compression.Choice, header bool) error {
	format, err := detectFormat(path, format)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	logger.Get().Info("dumping dataframe",
		zap.String("path", path), zap.String("format", format),
		zap.String("compression", string(choice.Algorithm)))

	switch format {
	case "csv":
		return b.DFDumpCSV(ctx, h, f, choice, header)
	case "parquet":
		return b.DFDumpParquet(ctx, h, f, choice)
	case "ipc":
		return b.DFDumpIPC(ctx, h, f)
	case "ipcstream":
		return b.DFDumpIPCStream(ctx, h, f)
	case "ndjson":
		return b.DFDumpNDJSON(ctx, h, f, choice)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
