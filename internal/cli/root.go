// Package cli wires restpilot's collection, render context, HTTP engine,
// state store and persistence store into a Cobra command tree: build,
// build-url, build-body, build-curl, and send.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/config"
	"github.com/restpilot/restpilot/internal/httpengine"
	"github.com/restpilot/restpilot/internal/persistence"
	"github.com/restpilot/restpilot/internal/render"
	"github.com/restpilot/restpilot/internal/statestore"
	"github.com/restpilot/restpilot/internal/version"
)

const (
	flagCollection = "collection"
	flagProfile    = "profile"
	flagOverride   = "override"
)

// app bundles the components a subcommand needs, built once in the root
// command's PersistentPreRunE and shared by every leaf command via its
// closure.
type app struct {
	cfg         config.Config
	collection  *collection.Collection
	engine      *httpengine.Engine
	persistence *persistence.Memory
	states      *statestore.Store
}

// newRootCmd builds the restpilot root command. cfg seeds the default
// collection file and HTTP engine options; flags layered on top of it
// (--collection, --profile) apply per invocation.
func newRootCmd(cfg config.Config) *cobra.Command {
	var a app

	root := &cobra.Command{
		Use:     "restpilot",
		Short:   "Template-driven HTTP API client",
		Long:    `restpilot renders collection recipes into HTTP requests, resolving chained values (env, prompts, prior responses, commands, files) before each send.`,
		Version: version.BuildVersionString(),

		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			collectionFile, _ := cmd.Flags().GetString(flagCollection)
			if collectionFile == "" {
				collectionFile = cfg.CollectionFile
			}
			c, err := collection.LoadFile(collectionFile)
			if err != nil {
				return fmt.Errorf("loading collection: %w", err)
			}

			a.cfg = cfg
			a.collection = c
			a.persistence = persistence.NewMemory()
			a.states = statestore.New(a.persistence)
			a.engine = httpengine.NewEngine(
				httpengine.WithIgnoreCertificateHosts(cfg.IgnoreCertificateHosts),
				httpengine.WithFollowRedirects(cfg.FollowRedirects),
				httpengine.WithBodyRecordThreshold(cfg.BodyRecordThresholdBytes),
			)
			return nil
		},
	}
	root.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)

	root.PersistentFlags().String(flagCollection, "", "Collection file to load (defaults to the config file's collection_file)")
	root.PersistentFlags().String(flagProfile, "", "Profile id to render against (defaults to the config file's profile, then the collection's default profile)")
	root.PersistentFlags().StringArray(flagOverride, nil, "Override a field/chain/env value: --override key=value. May be repeated.")

	root.AddCommand(
		newBuildCmd(&a),
		newBuildURLCmd(&a),
		newBuildBodyCmd(&a),
		newBuildCurlCmd(&a),
		newSendCmd(&a),
	)
	return root
}

// Execute runs the restpilot CLI with cfg as its base configuration.
func Execute(cfg config.Config) error {
	return newRootCmd(cfg).Execute()
}

// renderContext assembles a *render.Context for one invocation from the
// root's persistent flags: --profile selects the profile (falling back to
// the config file's profile, then the collection's default), --override
// entries populate rc.Overrides.
func renderContext(cmd *cobra.Command, a *app) (*render.Context, error) {
	profileID, _ := cmd.Flags().GetString(flagProfile)
	if profileID == "" {
		profileID = a.cfg.Profile
	}
	hasProfile := profileID != ""
	if !hasProfile {
		if id, ok := a.collection.DefaultProfileID(); ok {
			profileID, hasProfile = id, true
		}
	}

	overrides, err := parseOverrides(cmd)
	if err != nil {
		return nil, err
	}

	return &render.Context{
		Collection:  a.collection,
		ProfileID:   profileID,
		HasProfile:  hasProfile,
		HTTPEngine:  a.engine,
		Persistence: a.persistence,
		Overrides:   overrides,
		Prompter:    newTerminalPrompter(),
		State:       render.NewGroupState(),
	}, nil
}

func parseOverrides(cmd *cobra.Command) (map[string]string, error) {
	entries, _ := cmd.Flags().GetStringArray(flagOverride)
	overrides := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := splitOverride(entry)
		if !ok {
			return nil, fmt.Errorf("invalid --override %q: expected key=value", entry)
		}
		overrides[key] = value
	}
	return overrides, nil
}

func splitOverride(entry string) (key, value string, ok bool) {
	return strings.Cut(entry, "=")
}
