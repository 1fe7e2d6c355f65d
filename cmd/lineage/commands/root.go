// Package commands implements the lineage CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	data       string
	configPath string
	repo       string
	timezone   string
	renames    []string
	aliasFiles []string
	useName    bool
	quiet      bool
	verbose    bool
}

// NewRootCommand builds the lineage command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "lineage",
		Short: "Incremental line authorship of a git repository",
		Long: `Lineage attributes every line of every commit to the author who wrote it.

Commands:
  gather         Blame the history of a repository into the store
  authors        Lines per author at one commit
  years          Lines per year at one commit
  graph-authors  Lines per author over the whole history
  graph-years    Lines per year over the whole history`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.data, "data", "d", "", "Store location (default: store.dir, else ~/.lineage/store/<repo hash>)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: .lineage.yaml or ~/.lineage/.lineage.yaml)")
	flags.StringVar(&opts.repo, "repo", ".", "Repository whose default store is read when --data is not set")
	flags.StringVar(&opts.timezone, "timezone", "", "Time zone for years and graphs (IANA name, UTC or Local)")
	flags.StringArrayVar(&opts.renames, "rename", nil, "Alias an author, as old=new (repeatable)")
	flags.StringArrayVar(&opts.aliasFiles, "aliases", nil, "YAML file mapping author identities (repeatable)")
	flags.BoolVar(&opts.useName, "name", false, "Bucket authors by name instead of email")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress and summaries")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(NewGatherCommand(opts))
	rootCmd.AddCommand(NewAuthorsCommand(opts))
	rootCmd.AddCommand(NewYearsCommand(opts))
	rootCmd.AddCommand(NewGraphAuthorsCommand(opts))
	rootCmd.AddCommand(NewGraphYearsCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
