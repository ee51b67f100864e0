// Package main provides the fitbox command line client.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/fitbox/internal/api/connect"
	"github.com/osa030/fitbox/internal/app/fitter"
	"github.com/osa030/fitbox/internal/domain/playlist"
)

var (
	app    = kingpin.New("fitbox", "fitbox duration-fitting playlist client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("FITBOX_SERVER").String()
	token  = app.Flag("token", "API token").Envar("FITBOX_API_TOKEN").String()

	// fit command (offline)
	fitCmd       = app.Command("fit", "Fit a local YAML/JSON track pool to a target duration")
	fitPool      = fitCmd.Arg("pool", "Pool file").Required().ExistingFile()
	fitTarget    = fitCmd.Flag("target", "Target duration (overrides the pool file)").Short('t').Duration()
	fitTolerance = fitCmd.Flag("tolerance", "Tolerance (overrides the pool file)").Duration()
	fitMaxStates = fitCmd.Flag("max-states", "Search state budget (0 = unbounded)").Default("100000").Int()

	// generate command
	generateCmd       = app.Command("generate", "Generate a playlist on the server")
	generateMinutes   = generateCmd.Flag("minutes", "Target minutes (0 = server default)").Short('m').Int()
	generateTolerance = generateCmd.Flag("tolerance", "Tolerance in seconds").Int()
	generateSource    = generateCmd.Flag("source", "Source: top_tracks, genre or playlist").Default("top_tracks").String()
	generateGenre     = generateCmd.Flag("genre", "Genre for the genre source").String()
	generateMood      = generateCmd.Flag("mood", "Mood: balanced, energetic, chill or focused").Default("balanced").String()
	generatePlaylist  = generateCmd.Flag("playlist-url", "Playlist URL for the playlist source").String()

	// save command
	saveCmd  = app.Command("save", "Save a generated playlist to Spotify")
	saveID   = saveCmd.Arg("generation-id", "Generation ID").Required().String()
	saveName = saveCmd.Flag("name", "Playlist name (default: generated)").String()

	// genres command
	genresCmd = app.Command("genres", "List genres, moods and sources")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if command == fitCmd.FullCommand() {
		if err := runFit(ctx, os.Stdout); err != nil {
			fail(err)
		}
		return
	}

	client := apiconnect.NewPlaylistServiceClient(
		&http.Client{Timeout: 2 * time.Minute},
		*server,
		connect.WithInterceptors(apiconnect.NewTokenClientInterceptor(*token)),
	)

	var err error
	switch command {
	case generateCmd.FullCommand():
		err = runGenerate(ctx, client, os.Stdout)
	case saveCmd.FullCommand():
		err = runSave(ctx, client, os.Stdout)
	case genresCmd.FullCommand():
		err = runGenres(ctx, client, os.Stdout)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runFit(ctx context.Context, w io.Writer) error {
	pool, err := loadPool(*fitPool)
	if err != nil {
		return err
	}
	tracks, err := pool.tracks()
	if err != nil {
		return err
	}

	target := time.Duration(pool.TargetMinutes) * time.Minute
	if *fitTarget > 0 {
		target = *fitTarget
	}
	tolerance := time.Duration(0)
	if pool.ToleranceSeconds != nil {
		tolerance = time.Duration(*pool.ToleranceSeconds) * time.Second
	}
	if *fitTolerance > 0 {
		tolerance = *fitTolerance
	}

	res, err := fitter.FitContext(ctx, tracks, target, tolerance, fitter.WithMaxStates(*fitMaxStates))
	if err != nil {
		return err
	}
	printResult(w, res)
	return nil
}

func runGenerate(ctx context.Context, client *apiconnect.PlaylistServiceClient, w io.Writer) error {
	req := map[string]any{
		"source": *generateSource,
		"mood":   *generateMood,
	}
	if *generateMinutes > 0 {
		req["target_minutes"] = *generateMinutes
	}
	if *generateTolerance > 0 {
		req["tolerance_seconds"] = *generateTolerance
	}
	if *generateGenre != "" {
		req["genre"] = *generateGenre
	}
	if *generatePlaylist != "" {
		req["playlist_url"] = *generatePlaylist
	}

	resp, err := client.Generate(ctx, req)
	if err != nil {
		return err
	}
	gen, _ := resp["generation"].(map[string]any)
	printGeneration(w, gen)
	return nil
}

func runSave(ctx context.Context, client *apiconnect.PlaylistServiceClient, w io.Writer) error {
	req := map[string]any{"generation_id": *saveID}
	if *saveName != "" {
		req["name"] = *saveName
	}

	resp, err := client.Save(ctx, req)
	if err != nil {
		return err
	}
	saved, _ := resp["playlist"].(map[string]any)
	fmt.Fprintf(w, "Saved %v (%v tracks, %v)\n", saved["name"], saved["track_count"], saved["total"])
	fmt.Fprintf(w, "%v\n", saved["url"])
	return nil
}

func runGenres(ctx context.Context, client *apiconnect.PlaylistServiceClient, w io.Writer) error {
	resp, err := client.ListGenres(ctx)
	if err != nil {
		return err
	}
	for _, key := range []string{"sources", "moods", "genres"} {
		values, _ := resp[key].([]any)
		fmt.Fprintf(w, "%s (%d):\n", key, len(values))
		for _, v := range values {
			fmt.Fprintf(w, "  %v\n", v)
		}
	}
	return nil
}

func printResult(w io.Writer, res *fitter.Result) {
	for i, t := range res.Tracks {
		fmt.Fprintf(w, "%3d. %-8s %s - %s\n", i+1, playlist.FormatTrackDuration(t.Duration), t.ArtistNames(), t.Name)
	}
	fmt.Fprintf(w, "\nTotal: %s (target %s, deviation %s)\n",
		playlist.FormatTotalDuration(res.TotalDuration),
		playlist.FormatTarget(res.TargetDuration),
		res.Deviation())
	fmt.Fprintf(w, "%s", res.Accuracy())
	if !res.WithinTolerance() {
		fmt.Fprint(w, " (outside tolerance)")
	}
	fmt.Fprintln(w)
	if res.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d unusable tracks\n", res.Skipped)
	}
	if res.Truncated {
		fmt.Fprintln(w, "Search budget reached; result may not be optimal")
	}
}

func printGeneration(w io.Writer, gen map[string]any) {
	tracks, _ := gen["tracks"].([]any)
	for i, v := range tracks {
		t, _ := v.(map[string]any)
		fmt.Fprintf(w, "%3d. %-8v %v - %v\n", i+1, t["duration"], joinAny(t["artists"]), t["name"])
	}
	fmt.Fprintf(w, "\nTotal: %v, %v\n", gen["total"], gen["accuracy"])
	fmt.Fprintf(w, "Generation ID: %v\n", gen["id"])
}

func joinAny(v any) string {
	items, _ := v.([]any)
	s := ""
	for i, item := range items {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(item)
	}
	return s
}
