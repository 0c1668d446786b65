package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"threadfinder/config"
	"threadfinder/gallery"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Load the known faces and list the identities found",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(config.FACE_ENGINE)
		if err != nil {
			return err
		}
		defer engine.Close()

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Loading known faces"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		g := loadGallery(cmd.Context(), engine, func(path string) {
			bar.Describe(filepath.Base(path))
			_ = bar.Add(1)
		})
		_ = bar.Finish()

		if g.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No known faces were loaded from", config.KNOWN_FACES_DIR)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), identityTable(g))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}

func identityTable(g *gallery.Gallery) string {
	rows := make([][]string, 0, g.Len())
	for i, name := range g.Names() {
		rows = append(rows, []string{strconv.Itoa(i + 1), name, strconv.Itoa(len(g.Identity(i).Encoding))})
	}
	return renderTable([]string{"#", "Name", "Encoding size"}, rows, []columnAlignment{alignRight, alignLeft, alignRight})
}
