package main

import (
	"errors"
	"fmt"
	"strconv"

	"threadfinder/config"
	"threadfinder/processing"

	"github.com/spf13/cobra"
)

var annotateOpts = config.DefaultRequestConfig()

var annotateCmd = &cobra.Command{
	Use:   "annotate <image>",
	Short: "Find and name the faces in a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(config.FACE_ENGINE)
		if err != nil {
			return err
		}
		defer engine.Close()

		g := loadGallery(cmd.Context(), engine, nil)
		result := processing.Annotate(cmd.Context(), args[0], g, engine, annotateOpts)
		if len(result.Annotations) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), annotationTable(result.Annotations))
		}
		if result.Error != "" {
			return errors.New(result.Error)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	},
}

func init() {
	annotateCmd.Flags().Float64Var(&annotateOpts.Tolerance, "tolerance", annotateOpts.Tolerance, "maximum face distance for a match, lower is stricter")
	annotateCmd.Flags().Float64Var(&annotateOpts.MinFaceWidthPercentage, "min-width", annotateOpts.MinFaceWidthPercentage, "minimum face width, percent of the image width")
	annotateCmd.Flags().Float64Var(&annotateOpts.MinFaceHeightPercentage, "min-height", annotateOpts.MinFaceHeightPercentage, "minimum face height, percent of the image height")
	annotateCmd.Flags().IntVar(&annotateOpts.MaxFaces, "max-faces", annotateOpts.MaxFaces, "process only the N largest faces, 0 for all")
	rootCmd.AddCommand(annotateCmd)
}

func annotationTable(annotations []processing.Annotation) string {
	rows := make([][]string, 0, len(annotations))
	for _, a := range annotations {
		rows = append(rows, []string{
			a.ID,
			a.Name,
			strconv.Itoa(a.Box.Left),
			strconv.Itoa(a.Box.Top),
			strconv.Itoa(a.Box.Width),
			strconv.Itoa(a.Box.Height),
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Left", "Top", "Width", "Height"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}
