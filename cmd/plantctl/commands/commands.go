// Package commands implements the plantctl maintenance CLI
package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelzeko/plant-manager/internal/config"
	"github.com/abelzeko/plant-manager/internal/entities"
	"github.com/abelzeko/plant-manager/internal/integration"
	"github.com/abelzeko/plant-manager/internal/logger"
	"github.com/abelzeko/plant-manager/internal/repository"
	"github.com/abelzeko/plant-manager/internal/usecases"
)

type options struct {
	dbPath     string
	catalogURL string
	memory     bool
}

// session is one opened store with its use case
type session struct {
	useCase *usecases.PlantUseCase
	storage repository.KVStorage
}

// NewRootCommand builds the plantctl command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "plantctl",
		Short:        "Inspect and edit the plant manager store",
		Long:         "plantctl works on the same database as the bot. Stop the bot before editing to avoid lost updates.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default: DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.catalogURL, "catalog", "", "Catalog base URL (default: CATALOG_URL)")
	rootCmd.PersistentFlags().BoolVar(&opts.memory, "memory", false, "Use a throwaway in-memory store")

	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newAddCommand(opts))
	rootCmd.AddCommand(newRemoveCommand(opts))
	rootCmd.AddCommand(newResetCommand(opts))
	rootCmd.AddCommand(newNextCommand(opts))
	return rootCmd
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored plants, soonest watering first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.storage.Close()

			plants, err := s.useCase.MyPlants()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.useCase.FormatMyPlants(plants))
			return nil
		},
	}
}

func newAddCommand(opts *options) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add [catalog-id]",
		Short: "Add a catalog plant, or a custom one with --name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			times, _ := cmd.Flags().GetInt("times")
			every, _ := cmd.Flags().GetString("every")
			tips, _ := cmd.Flags().GetString("tips")

			if len(args) == 0 && name == "" {
				return errors.New("either a catalog id or --name is required")
			}

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.storage.Close()

			var plant entities.Plant
			if len(args) == 1 {
				plant, err = s.useCase.AddPlantFromCatalog(cmd.Context(), args[0])
			} else {
				plant, err = s.useCase.AddPlant(entities.Plant{
					Name:      name,
					WaterTips: tips,
					Frequency: entities.Frequency{Times: times, RepeatEvery: every},
				})
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s [%s], next watering %s\n",
				plant.Name, plant.ID, s.useCase.DescribeFromNow(plant.DateTimeNotification))
			return nil
		},
	}

	addCmd.Flags().String("name", "", "Name of a custom plant")
	addCmd.Flags().Int("times", 1, "Waterings per period")
	addCmd.Flags().String("every", "week", "Period: day, week or month")
	addCmd.Flags().String("tips", "", "Watering tips shown with reminders")
	return addCmd
}

func newRemoveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.storage.Close()

			if err := s.useCase.RemovePlant(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newResetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored plant, including corrupt data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.storage.Close()

			if err := s.useCase.ResetData(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Plant data reset")
			return nil
		},
	}
}

func newNextCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next watering banner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.storage.Close()

			plants, err := s.useCase.MyPlants()
			if err != nil {
				return err
			}
			banner, ok := s.useCase.NextWateringBanner(plants, time.Now())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No plants stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), banner)
			return nil
		},
	}
}

func (o *options) open() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if _, err := logger.New(cfg.Logger()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	var storage repository.KVStorage
	if o.memory {
		storage = repository.NewMemoryKVStorage()
	} else {
		dbPath := cfg.DBPath
		if o.dbPath != "" {
			dbPath = o.dbPath
		}
		storage, err = repository.NewSQLiteKVStorage(dbPath)
		if err != nil {
			return nil, err
		}
	}

	catalogURL := cfg.CatalogURL
	if o.catalogURL != "" {
		catalogURL = o.catalogURL
	}
	location, _ := cfg.Location()

	useCase := usecases.NewPlantUseCase(
		repository.NewPlantStore(storage),
		repository.NewUserStore(storage),
		integration.NewCatalogClient(catalogURL),
		usecases.WithLocale(cfg.Language()),
		usecases.WithLocation(location),
	)
	return &session{useCase: useCase, storage: storage}, nil
}
