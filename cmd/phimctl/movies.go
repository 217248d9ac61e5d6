package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dom/phim-stream/internal/domain"
	"github.com/spf13/cobra"
)

var moviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "Browse the movie catalog",
	Long: `Browse the movie catalog proxied by the server.

Examples:
  phimctl movies latest --page 2
  phimctl movies anime --limit 5
  phimctl movies nation han-quoc
  phimctl movies series --country han-quoc --year 2024
  phimctl movies watch some-movie-slug --server 1 --episode 3`,
}

var moviesLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "List recently updated movies",
	RunE:  runMoviesLatest,
}

var moviesAnimeCmd = &cobra.Command{
	Use:   "anime",
	Short: "List animation",
	RunE:  runMoviesAnime,
}

var moviesSeriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List series, optionally filtered by country and year",
	RunE:  runMoviesSeries,
}

var moviesNationCmd = &cobra.Command{
	Use:   "nation <slug>",
	Short: "List movies from one country",
	Args:  cobra.ExactArgs(1),
	RunE:  runMoviesNation,
}

var moviesWatchCmd = &cobra.Command{
	Use:   "watch <slug>",
	Short: "Print the stream link for an episode",
	Args:  cobra.ExactArgs(1),
	RunE:  runMoviesWatch,
}

func init() {
	for _, c := range []*cobra.Command{moviesLatestCmd, moviesAnimeCmd, moviesSeriesCmd} {
		c.Flags().Int("page", 1, "page number")
		c.Flags().Int("limit", 20, "maximum number of movies")
	}
	moviesSeriesCmd.Flags().String("country", "", "country slug, e.g. han-quoc")
	moviesSeriesCmd.Flags().Int("year", 0, "release year")
	moviesNationCmd.Flags().Int("limit", 20, "maximum number of movies")

	moviesWatchCmd.Flags().Int("server", 1, "server number, starting at 1")
	moviesWatchCmd.Flags().Int("episode", 1, "episode number, starting at 1")

	moviesCmd.AddCommand(moviesLatestCmd, moviesAnimeCmd, moviesSeriesCmd, moviesNationCmd, moviesWatchCmd)
	rootCmd.AddCommand(moviesCmd)
}

func runMoviesLatest(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")

	movies, err := getClient().LatestMovies(context.Background(), page, limit)
	if err != nil {
		return err
	}
	return printMovies(movies)
}

func runMoviesAnime(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")

	movies, err := getClient().AnimeMovies(context.Background(), page, limit)
	if err != nil {
		return err
	}
	return printMovies(movies)
}

func runMoviesSeries(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	country, _ := cmd.Flags().GetString("country")
	year, _ := cmd.Flags().GetInt("year")

	movies, err := getClient().SeriesMovies(context.Background(), page, country, year, limit)
	if err != nil {
		return err
	}
	return printMovies(movies)
}

func runMoviesNation(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	movies, err := getClient().NationMovies(context.Background(), args[0], limit)
	if err != nil {
		return err
	}
	return printMovies(movies)
}

func runMoviesWatch(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetInt("server")
	episode, _ := cmd.Flags().GetInt("episode")

	resp, err := getClient().Watch(context.Background(), args[0], server, episode)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(resp)
	}

	w := newTable()
	fmt.Fprintf(w, "Movie:\t%s\n", resp.Movie.Name)
	fmt.Fprintf(w, "Server:\t%s\n", resp.Server)
	fmt.Fprintf(w, "Episode:\t%s\n", resp.Episode.Name)
	fmt.Fprintf(w, "Stream:\t%s\n", resp.Episode.LinkM3U8)
	fmt.Fprintf(w, "Embed:\t%s\n", resp.Episode.LinkEmbed)
	return w.Flush()
}

func printMovies(movies []domain.Movie) error {
	if jsonOut {
		return printJSON(map[string]interface{}{
			"items": movies,
			"count": len(movies),
		})
	}

	if len(movies) == 0 {
		fmt.Println("No movies found")
		return nil
	}

	w := newTable()
	printTableHeader(w, "SLUG", "NAME", "YEAR", "EPISODE", "QUALITY")
	for _, m := range movies {
		year := ""
		if m.Year > 0 {
			year = strconv.Itoa(m.Year)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(m.Slug, 32),
			truncate(m.Name, 40),
			year,
			m.EpisodeCurrent,
			m.Quality,
		)
	}
	return w.Flush()
}
