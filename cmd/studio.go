package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ridoystarlord/erdkit/loader"
	"github.com/ridoystarlord/erdkit/schema"
	"github.com/ridoystarlord/erdkit/studio"
	"github.com/ridoystarlord/erdkit/typeoracle"
)

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Serve the diagram editor API",
	Long: `Launch erdkit Studio - a JSON API an editor front end drives to change the
diagram: tables and columns, drag-to-connect with conflict decisions,
relationship types, and waypoint editing of routes.

POST /api/save writes the diagram back to --schema.

The API will be available at http://localhost:8080/api by default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := viper.GetString("studio.port")
		if port == "" {
			port = "8080"
		}

		s, err := openStore()
		if err != nil {
			return err
		}

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		path := schemaFile()
		srv := studio.New(s, typeoracle.Default{},
			studio.WithLogger(logger),
			studio.WithRouting(routeStyle(), routeMode()),
			studio.WithSaver(func(d schema.Diagram) error {
				return loader.SaveDiagram(path, d)
			}),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("🚀 Starting erdkit Studio on http://localhost:%s\n", port)
		fmt.Println("Press Ctrl+C to stop the server")
		return srv.Run(ctx, ":"+port)
	},
}

func init() {
	rootCmd.AddCommand(studioCmd)

	studioCmd.Flags().String("port", "8080", "Port to run the web server on")
	_ = viper.BindPFlag("studio.port", studioCmd.Flags().Lookup("port"))
}
