package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cloudshare",
	Short: "Room-based file sharing with WebRTC signaling and chunked cloud relay",
	Long: `Cloudshare connects peers through short room codes. The server relays
WebRTC signaling and ephemeral chat between room members, and moves large
files by splitting them into chunks, parking them briefly in a blob store,
and announcing signed retrieval URLs to the room. Chunks auto-expire a few
minutes after upload.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
