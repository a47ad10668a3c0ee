package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/xrayboard/internal/util"
)

var (
	cfgFile string
	cfg     *util.Config
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "xrayboard",
	Short: "Usage dashboard and client manager for an Xray VLESS/Reality server",
	Long: `Xrayboard turns the daily CSV drops of an Xray traffic collector into
per-user usage reports:
- Daily traffic and connection series, current vs previous week
- Top destination domains per user and globally
- Anomaly flags for users crossing a daily traffic threshold
- VLESS client provisioning with share links and safe config rollout

It serves a JSON API, renders reports on the command line, and ships an
interactive terminal dashboard.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.xrayboard/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level (debug, info, warn, error)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(versionCmd)

	// Add shell completion
	rootCmd.AddCommand(completionCmd)
}

func initConfig() {
	var err error
	cfg, err = util.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	util.InitLogger(cfg.LogLevel, cfg.LogFile)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("xrayboard version 1.0.0")
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for xrayboard.

To load completions:

Bash:
  $ source <(xrayboard completion bash)

Zsh:
  $ source <(xrayboard completion zsh)

Fish:
  $ xrayboard completion fish | source

PowerShell:
  PS> xrayboard completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}
