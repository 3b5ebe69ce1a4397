package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ruthe06/cloudsharefiles/internal/signaling"
	"github.com/Ruthe06/cloudsharefiles/internal/transfer"
	"github.com/Ruthe06/cloudsharefiles/internal/wsclient"
)

var (
	receiveServer      string
	receiveOutDir      string
	receiveConcurrency int
)

var receiveCmd = &cobra.Command{
	Use:   "receive <room>",
	Short: "Join a room and reassemble the next file sent to it",
	Args:  cobra.ExactArgs(1),
	RunE:  runReceive,
}

func init() {
	receiveCmd.Flags().StringVar(&receiveServer, "server", "http://localhost:8080", "relay server base URL")
	receiveCmd.Flags().StringVar(&receiveOutDir, "out", ".", "output directory")
	receiveCmd.Flags().IntVar(&receiveConcurrency, "concurrency", transfer.DefaultConcurrency, "concurrent chunk downloads")
	rootCmd.AddCommand(receiveCmd)
}

func runReceive(cmd *cobra.Command, args []string) error {
	room := signaling.NormalizeRoomID(args[0])

	ws := wsclient.NewClient(wsclient.WebSocketURL(receiveServer))
	if err := ws.Connect(); err != nil {
		return err
	}
	defer ws.Close()

	handler := wsclient.NewHandler(ws)
	go handler.Start()

	ws.JoinRoom(room)
	fmt.Printf("Joined room %s, waiting for chunks...\n", room)

	downloader := transfer.NewDownloader()
	downloader.Concurrency = receiveConcurrency
	downloader.OnProgress = func(received, total int) {
		fmt.Printf("\rReceiving... %d/%d chunks", received, total)
	}
	downloader.OnError = func(index int, err error) {
		slog.Warn("chunk fetch failed", "index", index, "err", err)
	}

	ctx := context.Background()
	go func() {
		for announcement := range handler.Chunks {
			err := downloader.Enqueue(ctx, transfer.ChunkEvent{
				Index:    announcement.ChunkIndex,
				Total:    announcement.TotalChunks,
				URL:      announcement.ChunkURL,
				FileName: announcement.FileName,
				FileType: announcement.FileType,
				SenderID: announcement.SenderID,
			})
			if err != nil {
				slog.Warn("rejected chunk announcement", "index", announcement.ChunkIndex, "err", err)
			}
		}
	}()

	assembled, err := downloader.Wait(ctx)
	if err != nil {
		fmt.Println()
		return err
	}

	name := assembled.Name
	if name == "" {
		name = "download"
	}
	outPath := filepath.Join(receiveOutDir, filepath.Base(name))
	if err := os.WriteFile(outPath, assembled.Data, 0o644); err != nil {
		return err
	}

	fmt.Printf("\nSaved %s (%d bytes)\n", outPath, len(assembled.Data))
	return nil
}
