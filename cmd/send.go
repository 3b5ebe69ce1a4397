package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ruthe06/cloudsharefiles/internal/signaling"
	"github.com/Ruthe06/cloudsharefiles/internal/transfer"
	"github.com/Ruthe06/cloudsharefiles/internal/wsclient"
)

var (
	sendServer      string
	sendRoom        string
	sendChunkSize   int64
	sendConcurrency int
)

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Upload a file into a room through the relay",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendServer, "server", "http://localhost:8080", "relay server base URL")
	sendCmd.Flags().StringVar(&sendRoom, "room", "", "room code (generated when empty)")
	sendCmd.Flags().Int64Var(&sendChunkSize, "chunk-size", transfer.DefaultChunkSize, "chunk size in bytes")
	sendCmd.Flags().IntVar(&sendConcurrency, "concurrency", transfer.DefaultConcurrency, "concurrent chunk uploads")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	room := sendRoom
	if room == "" {
		room = signaling.NewRoomCode()
	}
	room = signaling.NormalizeRoomID(room)

	ws := wsclient.NewClient(wsclient.WebSocketURL(sendServer))
	if err := ws.Connect(); err != nil {
		return err
	}
	defer ws.Close()

	handler := wsclient.NewHandler(ws)
	go handler.Start()

	var senderID string
	select {
	case senderID = <-handler.Connected:
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timeout waiting for server welcome")
	}

	ws.JoinRoom(room)
	fmt.Printf("Room code: %s\n", room)
	fmt.Printf("Sending %s (%d bytes)\n", info.Name(), info.Size())

	fileType := mime.TypeByExtension(filepath.Ext(path))
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	uploader := &transfer.Uploader{
		ChunkSize:   sendChunkSize,
		Concurrency: sendConcurrency,
		Progress: func(uploaded, total int64) {
			fmt.Printf("\rUploading... %d%%", uploaded*100/total)
		},
	}
	sink := &transfer.HTTPSink{BaseURL: sendServer, SenderID: senderID}
	meta := transfer.FileMeta{SessionID: room, Name: info.Name(), Type: fileType}

	if err := uploader.Upload(context.Background(), f, info.Size(), meta, sink); err != nil {
		fmt.Println()
		return err
	}

	fmt.Println("\nUpload complete. Receivers have a few minutes before chunks expire.")
	return nil
}
