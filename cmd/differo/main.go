// Package main provides the entry point for the differo CLI tool.
package main

import (
	"fmt"
	"log"
	"net/http"
	nethttppprof "net/http/pprof"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/differo/differo/cmd/differo/commands"
	"github.com/differo/differo/pkg/version"
)

// pprofReadHeaderTimeout is the read header timeout for the pprof HTTP server.
const pprofReadHeaderTimeout = 10 * time.Second

var (
	verbose   bool
	quiet     bool
	logFormat string
)

func main() {
	// Start pprof HTTP server on localhost:6060 with explicit handler
	// registration (avoids gosec G108: DefaultServeMux exposure) and a
	// read header timeout (avoids gosec G114: no timeouts).
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", nethttppprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", nethttppprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", nethttppprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", nethttppprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", nethttppprof.Trace)
		server := &http.Server{
			Addr:              "localhost:6060",
			Handler:           mux,
			ReadHeaderTimeout: pprofReadHeaderTimeout,
		}
		log.Println(server.ListenAndServe())
	}()

	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "differo",
		Short: "differo - incremental differential dataflow toolkit",
		Long: `differo runs incremental dataflow computations over changing collections.

Commands:
  graph     Incremental single-source reachability over a streamed edge set
  tpch      Incremental TPC-H style revenue queries over streamed lineitems
  serve     Serve point lookups and updates over a live arrangement
  render    Render a query's per-round results as an HTML line chart`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")

	rootCmd.AddCommand(commands.NewGraphCommand())
	rootCmd.AddCommand(commands.NewTPCHCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "differo %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
