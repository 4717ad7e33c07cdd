// Package main provides the propscout CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"propscout/cmd/propscout/browse"
	"propscout/internal/catalog"
	"propscout/internal/config"
	"propscout/internal/conversation"
	"propscout/internal/listing"
	"propscout/internal/search"
	"propscout/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var (
	// Global flags
	verbose    bool
	configPath string
	catalogURL string

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "propscout",
	Short: "propscout - property catalog explorer",
	Long: `propscout is a terminal client for a property listing catalog.

Browse listings with structured filters, ask the catalog assistant in
plain language, inspect a listing's photo gallery, and publish your own
listings with attached photos.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win.
		_ = godotenv.Load()

		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if catalogURL != "" {
			cfg.Catalog.BaseURL = catalogURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if level, perr := zapcore.ParseLevel(cfg.Logging.Level); perr == nil {
			zcfg.Level = zap.NewAtomicLevelAt(level)
		}
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if cfg.Logging.File != "" {
			zcfg.OutputPaths = []string{cfg.Logging.File}
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive browser
		return runInteractive()
	},
}

// searchCmd runs a one-shot filter search
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog with structured filters",
	Long: `Runs a single catalog search and prints the matching listings.
Empty filters are omitted from the query; with no flags at all the whole
catalog is fetched.

Example:
  propscout search --city Pune --type APARTMENT --for RENT --bedrooms 2`,
	RunE: runSearch,
}

// getCmd fetches one listing
var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one listing in full, including its photo URLs",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// chatCmd sends one message to the catalog assistant
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the catalog assistant a question",
	Long: `Sends one message to the catalog assistant and prints the reply
with any listings it mentions.

Example:
  propscout chat "2BHK apartments in Mumbai under 50 lakh"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

// addCmd publishes a new listing
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Publish a new listing, optionally with photos",
	Long: `Creates a listing and then attaches any photos in a second step.
When the listing is created but the photo upload fails, the listing id is
printed so the upload can be retried with --retry-for.

Requires a stored identity; run "propscout login" first.`,
	RunE: runAdd,
}

// loginCmd stores the submitter identity
var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in to the catalog and store the identity locally",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

// registerCmd creates an account
var registerCmd = &cobra.Command{
	Use:   "register [email]",
	Short: "Create a catalog account and store the identity locally",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

var (
	// search flags
	flagCity, flagFor, flagType string
	flagMinPrice, flagMaxPrice  string
	flagBedrooms                string

	// add flags
	addTitle, addDescription, addAddress string
	addCity, addState, addPincode        string
	addPrice, addPhone                   string
	addBedrooms, addArea                 string
	addType, addFor, addUnit             string
	addImages                            []string
	addRetryFor                          string

	// register flags
	registerName, registerPhone string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.propscout/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogURL, "catalog-url", "", "Catalog base URL (overrides config)")

	searchCmd.Flags().StringVar(&flagCity, "city", "", "Filter by city")
	searchCmd.Flags().StringVar(&flagFor, "for", "", "SALE or RENT")
	searchCmd.Flags().StringVar(&flagType, "type", "", "HOUSE, APARTMENT, VILLA or PLOT")
	searchCmd.Flags().StringVar(&flagMinPrice, "min-price", "", "Minimum price")
	searchCmd.Flags().StringVar(&flagMaxPrice, "max-price", "", "Maximum price")
	searchCmd.Flags().StringVar(&flagBedrooms, "bedrooms", "", "Bedroom count")

	addCmd.Flags().StringVar(&addTitle, "title", "", "Listing title")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Listing description")
	addCmd.Flags().StringVar(&addAddress, "address", "", "Street address")
	addCmd.Flags().StringVar(&addCity, "city", "", "City")
	addCmd.Flags().StringVar(&addState, "state", "", "State")
	addCmd.Flags().StringVar(&addPincode, "pincode", "", "Postal code")
	addCmd.Flags().StringVar(&addPrice, "price", "", "Price (required)")
	addCmd.Flags().StringVar(&addPhone, "phone", "", "Contact phone")
	addCmd.Flags().StringVar(&addBedrooms, "bedrooms", "", "Bedroom count (ignored for PLOT)")
	addCmd.Flags().StringVar(&addArea, "area", "", "Area magnitude")
	addCmd.Flags().StringVar(&addType, "type", "HOUSE", "HOUSE, APARTMENT, VILLA or PLOT")
	addCmd.Flags().StringVar(&addFor, "for", "SALE", "SALE or RENT")
	addCmd.Flags().StringVar(&addUnit, "unit", "sqft", "sqft or acre")
	addCmd.Flags().StringSliceVar(&addImages, "image", nil, "Photo file to attach (repeatable)")
	addCmd.Flags().StringVar(&addRetryFor, "retry-for", "", "Retry the photo upload for an existing listing id")

	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerPhone, "phone", "", "Contact phone")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() *catalog.Client {
	ccfg := catalog.DefaultConfig()
	ccfg.BaseURL = cfg.Catalog.BaseURL
	ccfg.Timeout = cfg.GetCatalogTimeout()
	ccfg.Logger = logger
	return catalog.NewClientWithConfig(ccfg)
}

// runInteractive launches the Bubble Tea interface. The config file is
// watched while the UI runs so base URL or timeout edits apply without a
// restart.
func runInteractive() error {
	client := newClient()

	id, err := session.Load(cfg.IdentityPath())
	if err != nil {
		logger.Warn("stored identity unreadable", zap.Error(err))
	}

	model := browse.NewModel(cfg, client, id.UserID, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Reloads are handed to the event loop as a message; the watcher
	// goroutine never writes state the loop reads.
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	watcher, err := config.Watch(path, logger, func(next *config.Config) {
		p.Send(browse.ConfigReloadedMsg{Config: next})
	})
	if err != nil {
		logger.Debug("config watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}

// runSearch performs a one-shot filter search and prints the results
func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetCatalogTimeout())
	defer cancel()

	query := searchQueryFromFlags()
	results, err := newClient().SearchProperties(ctx, query.Params())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No properties found.")
		return nil
	}

	for _, p := range results {
		line := fmt.Sprintf("%s  %s  ₹%.0f  %s [%s/%s]", p.ID, p.Title, p.Price, p.City, p.PropertyType, p.ForType)
		if p.Bedrooms != nil {
			line += fmt.Sprintf("  %d BHK", *p.Bedrooms)
		}
		if p.Area != nil {
			line += fmt.Sprintf("  %.0f %s", *p.Area, p.AreaUnit)
		}
		fmt.Println(line)
	}
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetCatalogTimeout())
	defer cancel()

	p, err := newClient().GetProperty(ctx, args[0])
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("listing %s is no longer available", args[0])
		}
		return fmt.Errorf("fetch failed: %w", err)
	}

	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetChatTimeout())
	defer cancel()

	reply, err := newClient().SendChatMessage(ctx, strings.Join(args, " "))
	if err != nil {
		logger.Warn("assistant round trip failed", zap.Error(err))
		fmt.Println(conversation.FallbackMessage)
		return nil
	}

	fmt.Println(reply.Response)
	for _, ref := range reply.Properties {
		fmt.Printf("  [%s] %s\n", ref.ID, ref.Title)
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetCatalogTimeout())
	defer cancel()

	id, err := session.Load(cfg.IdentityPath())
	if err != nil {
		return err
	}
	if id.IsZero() {
		return fmt.Errorf("no stored identity: run `propscout login` first")
	}

	images, err := browse.LoadImages(strings.Join(addImages, ","))
	if err != nil {
		return err
	}

	draft := listing.NewDraft()
	draft.Title = addTitle
	draft.Description = addDescription
	draft.Address = addAddress
	draft.City = addCity
	draft.State = addState
	draft.Pincode = addPincode
	draft.Price = addPrice
	draft.Phone = addPhone
	draft.Bedrooms = addBedrooms
	draft.Area = addArea
	draft.PropertyType = catalog.PropertyType(strings.ToUpper(addType))
	draft.ForType = catalog.ForType(strings.ToUpper(addFor))
	draft.AreaUnit = catalog.AreaUnit(strings.ToLower(addUnit))
	draft.Images = images

	workflow := listing.NewWorkflow(newClient(), id.UserID, logger)

	var result *listing.Result
	if addRetryFor != "" {
		result, err = workflow.RetryMedia(ctx, draft, addRetryFor)
	} else {
		result, err = workflow.Submit(ctx, draft)
	}
	if err != nil {
		return err
	}

	switch result.Status {
	case listing.StatusCreated:
		fmt.Printf("Published listing %s\n", result.PropertyID)
	case listing.StatusMediaFailed:
		fmt.Printf("Created listing %s, but the photo upload failed: %v\n", result.PropertyID, result.MediaErr)
		fmt.Printf("Retry with: propscout add --retry-for %s --image ...\n", result.PropertyID)
	}
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	return authenticate(cmd, args[0], false)
}

func runRegister(cmd *cobra.Command, args []string) error {
	return authenticate(cmd, args[0], true)
}

func authenticate(cmd *cobra.Command, email string, register bool) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetCatalogTimeout())
	defer cancel()

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	client := newClient()
	var user *catalog.User
	if register {
		user, err = client.Register(ctx, email, string(raw), registerName, registerPhone)
	} else {
		user, err = client.Login(ctx, email, string(raw))
	}
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if err := session.Save(cfg.IdentityPath(), session.Identity{UserID: user.ID, Email: email}); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", email)
	return nil
}

func searchQueryFromFlags() search.FilterQuery {
	return search.FilterQuery{
		City:         flagCity,
		ForType:      strings.ToUpper(flagFor),
		PropertyType: strings.ToUpper(flagType),
		MinPrice:     flagMinPrice,
		MaxPrice:     flagMaxPrice,
		Bedrooms:     flagBedrooms,
	}
}
