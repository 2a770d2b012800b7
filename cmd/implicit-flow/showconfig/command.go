package showconfig

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/implicit-flow/internal/business"
	"github.com/openkcm/implicit-flow/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"config",
		"Print the configuration",
		"Prints the effective configuration as YAML",
		buildInfo,
		cmdutils.RunAsJob,
		business.ConfigMain,
	)
}
