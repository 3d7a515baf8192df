// Package main provides the remote-control CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"

	apiconnect "github.com/osa030/boombox/internal/api/connect"
	"github.com/osa030/boombox/internal/domain/song"
)

var (
	app    = kingpin.New("boombox-remotecli", "boombox remote control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token (or set CONTROL_TOKEN env)").Envar("CONTROL_TOKEN").String()

	statusCmd  = app.Command("status", "Show the player state")
	catalogCmd = app.Command("catalog", "List every known song")

	playCmd  = app.Command("play", "Start or resume playback")
	pauseCmd = app.Command("pause", "Pause playback")
	stopCmd  = app.Command("stop", "Stop playback and rewind")
	nextCmd  = app.Command("next", "Skip to the next song")
	prevCmd  = app.Command("prev", "Go back, or restart the current song").Alias("previous")

	seekCmd     = app.Command("seek", "Move the playback position")
	seekSeconds = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()

	shuffleCmd = app.Command("shuffle", "Toggle shuffle")

	volumeCmd   = app.Command("volume", "Change the volume by a delta")
	volumeDelta = volumeCmd.Arg("delta", "Volume delta, e.g. 0.1 or -0.1").Required().Float64()

	useCmd      = app.Command("use", "Make a playlist current")
	usePlaylist = useCmd.Arg("playlist-id", "Playlist ID").Required().String()

	createCmd   = app.Command("create", "Create a playlist from song IDs")
	createName  = createCmd.Arg("name", "Playlist name").Required().String()
	createSongs = createCmd.Arg("song-ids", "Song IDs in playback order").Required().Strings()

	deleteCmd      = app.Command("delete", "Delete a playlist")
	deletePlaylist = deleteCmd.Arg("playlist-id", "Playlist ID").Required().String()

	selectCmd  = app.Command("select", "Add a song to the draft selection")
	selectSong = selectCmd.Arg("song-id", "Song ID").Required().String()

	deselectCmd  = app.Command("deselect", "Remove a song from the draft selection")
	deselectSong = deselectCmd.Arg("song-id", "Song ID").Required().String()

	commitCmd  = app.Command("commit", "Create a playlist from the draft selection")
	commitName = commitCmd.Arg("name", "Playlist name").Required().String()

	requestDeleteCmd      = app.Command("request-delete", "Ask to delete a playlist")
	requestDeletePlaylist = requestDeleteCmd.Arg("playlist-id", "Playlist ID").Required().String()

	confirmDeleteCmd = app.Command("confirm-delete", "Confirm the pending delete")
	cancelDeleteCmd  = app.Command("cancel-delete", "Cancel the pending delete")

	subscribeCmd = app.Command("subscribe", "Stream player notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)
	ctx := context.Background()

	switch command {
	case statusCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceGetSnapshotProcedure, nil))
	case catalogCmd.FullCommand():
		printCatalog(call(ctx, client, apiconnect.PlayerServiceListCatalogProcedure, nil))
	case playCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServicePlayProcedure, nil))
	case pauseCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServicePauseProcedure, nil))
	case stopCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceStopProcedure, nil))
	case nextCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceNextProcedure, nil))
	case prevCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServicePreviousProcedure, nil))
	case seekCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceSeekProcedure, map[string]any{
			"position_ms": *seekSeconds * 1000,
		}))
	case shuffleCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceToggleShuffleProcedure, nil))
	case volumeCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceChangeVolumeProcedure, map[string]any{
			"delta": *volumeDelta,
		}))
	case useCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceChangePlaylistProcedure, map[string]any{
			"id": *usePlaylist,
		}))
	case createCmd.FullCommand():
		printCreated(call(ctx, client, apiconnect.PlayerServiceCreatePlaylistProcedure, map[string]any{
			"name":     *createName,
			"song_ids": lo.ToAnySlice(*createSongs),
		}))
	case deleteCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceDeletePlaylistProcedure, map[string]any{
			"id": *deletePlaylist,
		}))
	case selectCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceSelectSongProcedure, map[string]any{
			"id": *selectSong,
		}))
	case deselectCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceDeselectSongProcedure, map[string]any{
			"id": *deselectSong,
		}))
	case commitCmd.FullCommand():
		printCreated(call(ctx, client, apiconnect.PlayerServiceCommitSelectionProcedure, map[string]any{
			"name": *commitName,
		}))
	case requestDeleteCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceRequestDeleteProcedure, map[string]any{
			"id": *requestDeletePlaylist,
		}))
	case confirmDeleteCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceConfirmDeleteProcedure, nil))
	case cancelDeleteCmd.FullCommand():
		printSnapshot(call(ctx, client, apiconnect.PlayerServiceCancelDeleteProcedure, nil))
	case subscribeCmd.FullCommand():
		subscribe(ctx, client)
	}
}

func call(ctx context.Context, client *apiconnect.Client, procedure string, fields map[string]any) map[string]any {
	msg, err := client.Call(ctx, procedure, fields)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return msg.AsMap()
}

func subscribe(ctx context.Context, client *apiconnect.Client) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Subscribing to notifications... (Press Ctrl+C to stop)")

	err := client.Subscribe(ctx, func(msg *structpb.Struct) error {
		n := msg.AsMap()
		fmt.Printf("\n[%s] #%d %s\n",
			time.Now().Format(time.TimeOnly), int64(number(n, "sequence_no")), text(n, "event"))
		if snap, ok := n["snapshot"].(map[string]any); ok {
			printSnapshot(snap)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printSnapshot(s map[string]any) {
	fmt.Printf("State:    %s\n", text(s, "state"))
	if current, ok := s["song"].(map[string]any); ok {
		fmt.Printf("Song:     %s %s\n", text(current, "glyph"), label(current))
	} else {
		fmt.Println("Song:     -")
	}
	fmt.Printf("Position: %s / %s\n", text(s, "position"), text(s, "duration"))
	fmt.Printf("Volume:   %.0f%%\n", number(s, "volume")*100)
	fmt.Printf("Shuffle:  %v\n", s["shuffle"])

	if pl, ok := s["playlist"].(map[string]any); ok {
		fmt.Printf("Playlist: %s (%s) #%d\n", text(pl, "name"), text(pl, "id"), int(number(s, "index"))+1)
	}

	fmt.Println("Playlists:")
	for _, item := range list(s, "playlists") {
		pl := item.(map[string]any)
		fmt.Printf("  %-36s %-20s %3d songs  %s\n",
			text(pl, "id"), text(pl, "name"), int(number(pl, "song_count")), clock(number(pl, "total_duration_ms")))
	}

	if selected := list(s, "selected"); len(selected) > 0 {
		fmt.Println("Selected:")
		for _, item := range selected {
			fmt.Printf("  %s\n", label(item.(map[string]any)))
		}
	}
	if pending, ok := s["pending_delete"].(map[string]any); ok {
		fmt.Printf("Pending delete: %s (%s)\n", text(pending, "name"), text(pending, "id"))
	}
}

func printCreated(s map[string]any) {
	if created, ok := s["created"].(map[string]any); ok {
		fmt.Printf("Created playlist %s (%s)\n\n", text(created, "name"), text(created, "id"))
	}
	printSnapshot(s)
}

func printCatalog(c map[string]any) {
	songs := list(c, "songs")
	fmt.Printf("Catalog (%d songs):\n", len(songs))
	for _, item := range songs {
		s := item.(map[string]any)
		fmt.Printf("  %s %-24s %5s  %s\n", text(s, "glyph"), text(s, "id"), clock(number(s, "duration_ms")), label(s))
	}
}

func label(s map[string]any) string {
	x := song.Song{Title: text(s, "title"), Artist: text(s, "artist")}
	return x.Label()
}

func clock(ms float64) string {
	return song.FormatClock(time.Duration(ms) * time.Millisecond)
}

func text(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func number(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}

func list(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}
